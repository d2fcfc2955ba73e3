package checkout

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mykejnr/oscarshop/internal/domain"
)

// Form owns the live field state accumulated across wizard sections. It is
// mutated field by field as the buyer types and read in full at submission.
type Form struct {
	data     domain.CheckoutFormData
	validate *validator.Validate
}

// NewForm builds an empty checkout form.
func NewForm() *Form {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report validation errors under the wire field names so they line up
	// with the dotted paths used by the error mapper.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return field.Name
		}
		return tag
	})
	return &Form{validate: v}
}

// Data returns a copy of the accumulated form values.
func (f *Form) Data() domain.CheckoutFormData {
	return f.data
}

// SetGuestEmail records the guest email used for order notifications.
func (f *Form) SetGuestEmail(email string) {
	f.data.GuestEmail = strings.TrimSpace(email)
}

// SetShippingMethod records the selected shipping method code.
func (f *Form) SetShippingMethod(code string) {
	f.data.ShippingMethod = code
}

// SetPaymentMethod records the selected payment method.
func (f *Form) SetPaymentMethod(label string) {
	f.data.PaymentMethod = label
}

// SetShippingAddress replaces the whole address record, re-resolving the
// calling code for the selected country.
func (f *Form) SetShippingAddress(addr domain.ShippingAddress) {
	f.data.ShippingAddress = addr
	f.resolveCallingCode()
}

// SetCountry records the buyer's country and resolves its international
// calling code into the postcode field, which the address section renders
// as the read-only phone prefix.
func (f *Form) SetCountry(code string) {
	f.data.ShippingAddress.Country = code
	f.resolveCallingCode()
}

func (f *Form) resolveCallingCode() {
	if code := domain.CallingCode(f.data.ShippingAddress.Country); code != "" {
		f.data.ShippingAddress.Postcode = code
	}
}

// ValidateSection runs the client side checks for one wizard section and
// returns any failures as a field error tree. Only the address section
// carries required fields; every other section validates clean.
func (f *Form) ValidateSection(section domain.WizardSection) FieldErrors {
	if section != domain.SectionShipAddress {
		return nil
	}

	var errs FieldErrors

	if err := f.validate.Struct(f.data.ShippingAddress); err != nil {
		violations, ok := err.(validator.ValidationErrors)
		if !ok {
			return FieldErrors{"shipping_address": map[string]any{}}
		}
		address := make(map[string]any, len(violations))
		for _, violation := range violations {
			address[violation.Field()] = []string{tagMessage(violation.Tag())}
		}
		errs = FieldErrors{"shipping_address": address}
	}

	// The guest email lives on the address step but is optional; only its
	// format is checked.
	if f.data.GuestEmail != "" {
		if err := f.validate.Var(f.data.GuestEmail, "email"); err != nil {
			if errs == nil {
				errs = FieldErrors{}
			}
			errs["guest_email"] = []string{tagMessage("email")}
		}
	}

	return errs
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	default:
		return "This value is invalid."
	}
}
