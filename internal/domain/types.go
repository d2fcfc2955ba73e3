package domain

// WizardSection identifies one step of the multi-step checkout form.
type WizardSection string

const (
	// SectionShipAddress collects the shipping address.
	SectionShipAddress WizardSection = "ship_address"
	// SectionShipMethod selects a shipping method.
	SectionShipMethod WizardSection = "ship_method"
	// SectionPayMethod selects a payment method.
	SectionPayMethod WizardSection = "pay_method"
	// SectionReview shows the collected details before submission.
	SectionReview WizardSection = "review"
	// SectionNone is the sentinel used as "no previous"/"no next". It is
	// never a valid current section.
	SectionNone WizardSection = "nosection"
)

// ShippingAddress is the flat address record collected by the wizard.
// Postcode holds the resolved country calling code (e.g. "+233"), not a
// postal code; the field name is kept for wire compatibility with the
// checkout endpoint.
type ShippingAddress struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	State       string `json:"state" validate:"required"`
	Line4       string `json:"line4" validate:"required"`
	Line1       string `json:"line1" validate:"required"`
	Postcode    string `json:"postcode"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Country     string `json:"country" validate:"required"`
	Notes       string `json:"notes"`
}

// CheckoutFormData accumulates everything the wizard collects across its
// sections. It is fully populated only once every section has been visited
// or pre-filled.
type CheckoutFormData struct {
	GuestEmail      string          `json:"guest_email" validate:"omitempty,email"`
	ShippingMethod  string          `json:"shipping_method"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
}

// RadioOption is the normalised representation of a selectable shipping or
// payment method, independent of its source schema.
type RadioOption struct {
	Value       string  `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// AnonymousCredentials lets an unauthenticated buyer look an order up later
// without a login. Issued by the checkout endpoint for guest checkouts.
type AnonymousCredentials struct {
	UUID  string `json:"uuid"`
	Token string `json:"token"`
}

// Order is the immutable record returned by the checkout endpoint.
type Order struct {
	URL             string                `json:"url"`
	Number          string                `json:"number"`
	Basket          string                `json:"basket"`
	User            string                `json:"user"`
	Currency        string                `json:"currency"`
	TotalInclTax    float64               `json:"total_incl_tax"`
	TotalExclTax    float64               `json:"total_excl_tax"`
	ShippingInclTax float64               `json:"shipping_incl_tax"`
	ShippingExclTax float64               `json:"shipping_excl_tax"`
	ShippingMethod  string                `json:"shipping_method"`
	ShippingCode    string                `json:"shipping_code"`
	Status          string                `json:"status"`
	GuestEmail      string                `json:"guest_email"`
	DatePlaced      string                `json:"date_placed"`
	Anonymous       *AnonymousCredentials `json:"anonymous,omitempty"`
}

// PaymentStatusText enumerates the visible states of a payment session.
type PaymentStatusText string

const (
	// PaymentIdle means no payment attempt is in progress.
	PaymentIdle PaymentStatusText = "IDLE"
	// PaymentConnecting means the bridge connection is being established.
	PaymentConnecting PaymentStatusText = "CONNECTING"
	// PaymentRequesting means the gateway is issuing the payment request.
	PaymentRequesting PaymentStatusText = "REQUESTING"
	// PaymentWaiting means the gateway awaits the buyer's authorization.
	PaymentWaiting PaymentStatusText = "WAITING"
	// PaymentAuthorized is the terminal success state.
	PaymentAuthorized PaymentStatusText = "AUTHORIZED"
	// PaymentError is a terminal failure requiring a manual retry.
	PaymentError PaymentStatusText = "ERROR"
	// PaymentTimeout means the gateway gave up waiting for confirmation.
	PaymentTimeout PaymentStatusText = "TIMEOUT"
	// PaymentDisconnected means the bridge closed mid-session without a
	// gateway verdict.
	PaymentDisconnected PaymentStatusText = "DISCONNECTED"
)

// Payment response status codes pushed by the bridge. Codes follow HTTP
// semantics: 102 while the gateway is working, 200 on success, anything
// >=400 is a failure.
const (
	// PaymentStatusIdle marks a local-only response with nothing to show.
	PaymentStatusIdle = 0
	// PaymentStatusProcessing marks intermediate progress (show spinner).
	PaymentStatusProcessing = 102
	// PaymentStatusOK marks terminal payment success.
	PaymentStatusOK = 200
	// PaymentStatusFailed marks a terminal failure raised client-side.
	PaymentStatusFailed = 500
)

// PaymentResponse is a server-pushed event on the payment session.
type PaymentResponse struct {
	Status     int               `json:"status"`
	StatusText PaymentStatusText `json:"status_text"`
	Message    string            `json:"message"`
}

// Processing reports whether the response describes in-flight gateway work,
// i.e. the UI should keep its spinner visible.
func (r PaymentResponse) Processing() bool {
	return r.Status == PaymentStatusProcessing
}

// Display renders the response the way the payment panel shows it. Idle
// responses produce an empty string.
func (r PaymentResponse) Display() string {
	if r.Status <= PaymentStatusIdle {
		return ""
	}
	return "(" + string(r.StatusText) + ") " + r.Message
}
