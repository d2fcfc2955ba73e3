// Package shell abstracts the storefront surfaces the checkout subsystem
// collaborates with: the shared basket, the popup notification area and
// client side navigation. Concrete implementations live with whatever hosts
// the controllers.
package shell

import "context"

// Notification is one popup message. HTML notifications may carry markup
// and are rendered rich; everything else is plain text.
type Notification struct {
	Title   string
	Message string
	HTML    bool
}

// Notifier is the global notification surface.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Navigator performs client side navigation.
type Navigator interface {
	Navigate(path string)
}

// BasketLine is one priced line of the shared basket.
type BasketLine struct {
	Title     string
	Quantity  int
	UnitPrice float64
}

// BasketSnapshot is a point in time read of the shared basket.
type BasketSnapshot struct {
	Lines      []BasketLine
	TotalPrice float64
}

// Basket is the shared read/write basket. During an active checkout the
// wizard is its sole writer.
type Basket interface {
	Snapshot() BasketSnapshot
	Clear(ctx context.Context)
}
