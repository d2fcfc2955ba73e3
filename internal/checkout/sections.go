package checkout

import "github.com/mykejnr/oscarshop/internal/domain"

// Step describes the renderable portion of one wizard section.
type Step struct {
	Section domain.WizardSection
	Label   string
	// Fields lists the dotted form paths the section owns, used for
	// section level validation and error rendering.
	Fields []string
}

var steps = map[domain.WizardSection]Step{
	domain.SectionShipAddress: {
		Section: domain.SectionShipAddress,
		Label:   "Shipping Address",
		Fields: []string{
			"shipping_address.first_name",
			"shipping_address.last_name",
			"shipping_address.country",
			"shipping_address.postcode",
			"shipping_address.phone_number",
			"shipping_address.state",
			"shipping_address.line4",
			"shipping_address.line1",
			"shipping_address.notes",
		},
	},
	domain.SectionShipMethod: {
		Section: domain.SectionShipMethod,
		Label:   "Shipping Method",
		Fields:  []string{"shipping_method"},
	},
	domain.SectionPayMethod: {
		Section: domain.SectionPayMethod,
		Label:   "Payment Method",
		Fields:  []string{"payment_method"},
	},
	domain.SectionReview: {
		Section: domain.SectionReview,
		Label:   "Please Review Your Details Before You Submit",
	},
}

// GetSection resolves a wizard section to its step plus the previous and
// next sections in the fixed chain ship_address, ship_method, pay_method,
// review. The first section has no previous and the last has no next,
// signalled with SectionNone. Unknown input resolves to the review step,
// matching the chain's tail.
func GetSection(current domain.WizardSection) (Step, domain.WizardSection, domain.WizardSection) {
	switch current {
	case domain.SectionShipAddress:
		return steps[domain.SectionShipAddress], domain.SectionNone, domain.SectionShipMethod
	case domain.SectionShipMethod:
		return steps[domain.SectionShipMethod], domain.SectionShipAddress, domain.SectionPayMethod
	case domain.SectionPayMethod:
		return steps[domain.SectionPayMethod], domain.SectionShipMethod, domain.SectionReview
	default:
		return steps[domain.SectionReview], domain.SectionPayMethod, domain.SectionNone
	}
}

// ErrorSection picks the earliest wizard section whose backing field
// produced a server error, so the wizard can jump the user straight to what
// needs fixing. With no recognisable field it defaults to the first
// section.
func ErrorSection(errs FieldErrors) domain.WizardSection {
	section := domain.SectionShipAddress

	switch {
	case errs.Has("shipping_address"):
		section = domain.SectionShipAddress
	case errs.Has("shipping_method"):
		section = domain.SectionShipMethod
	case errs.Has("payment_method"):
		section = domain.SectionPayMethod
	}

	return section
}
