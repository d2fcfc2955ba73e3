package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ShippingMethod is one row of the shipping catalogue, serialised the way
// the storefront expects it.
type ShippingMethod struct {
	Code        string  `json:"code" yaml:"code"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
}

// PaymentMethod is one row of the payment catalogue.
type PaymentMethod struct {
	Label       string `json:"label" yaml:"label"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
}

// Catalogue is the gateway's method inventory, loaded from YAML so a
// developer can tweak prices and methods without recompiling.
type Catalogue struct {
	Shipping []ShippingMethod `yaml:"shipping_methods"`
	Payment  []PaymentMethod  `yaml:"payment_methods"`
}

// DefaultCatalogue is served when no catalogue file exists.
func DefaultCatalogue() Catalogue {
	return Catalogue{
		Shipping: []ShippingMethod{
			{Code: "home-delivery", Name: "Home Delivery", Description: "Delivered to your address within 2-4 working days.", Price: 20},
			{Code: "pay-on-delivery", Name: "Pay on Delivery", Description: "Pay the courier when your items arrive.", Price: 0},
			{Code: "no-delivery-required", Name: "No Delivery Required", Description: "Pick your items up at the shop.", Price: 0},
		},
		Payment: []PaymentMethod{
			{Label: "mtn_momo", Name: "MTN Mobile Money", Description: "Pay with your MTN Mobile Money wallet.", Icon: "momo.jpg"},
			{Label: "vf_cash", Name: "Vodafone Cash", Description: "Pay with your Vodafone Cash wallet.", Icon: "vfcash.jpg"},
		},
	}
}

// LoadCatalogue reads a YAML catalogue from disk. A missing file falls
// back to the built-in default; a malformed one is an error.
func LoadCatalogue(path string) (Catalogue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCatalogue(), nil
		}
		return Catalogue{}, fmt.Errorf("gateway: read catalogue %s: %w", path, err)
	}
	return ParseCatalogue(raw)
}

// ParseCatalogue decodes a YAML catalogue document.
func ParseCatalogue(raw []byte) (Catalogue, error) {
	var catalogue Catalogue
	if err := yaml.Unmarshal(raw, &catalogue); err != nil {
		return Catalogue{}, fmt.Errorf("gateway: parse catalogue: %w", err)
	}
	if len(catalogue.Shipping) == 0 {
		return Catalogue{}, fmt.Errorf("gateway: catalogue has no shipping methods")
	}
	if len(catalogue.Payment) == 0 {
		return Catalogue{}, fmt.Errorf("gateway: catalogue has no payment methods")
	}
	return catalogue, nil
}

// shippingMethod looks a shipping method up by code.
func (c Catalogue) shippingMethod(code string) (ShippingMethod, bool) {
	for _, method := range c.Shipping {
		if method.Code == code {
			return method, true
		}
	}
	return ShippingMethod{}, false
}

// paymentMethod looks a payment method up by label.
func (c Catalogue) paymentMethod(label string) (PaymentMethod, bool) {
	for _, method := range c.Payment {
		if method.Label == label {
			return method, true
		}
	}
	return PaymentMethod{}, false
}
