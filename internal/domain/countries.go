package domain

// Country holds the display name and international calling code for one
// ISO 3166-1 alpha-2 country code.
type Country struct {
	Name        string
	CallingCode string
}

// countries is the subset of the ISO table the storefront ships to. The
// calling code is resolved into ShippingAddress.Postcode when the buyer
// picks a country.
var countries = map[string]Country{
	"BF": {Name: "Burkina Faso", CallingCode: "+226"},
	"BJ": {Name: "Benin", CallingCode: "+229"},
	"CA": {Name: "Canada", CallingCode: "+1"},
	"CI": {Name: "Côte d'Ivoire", CallingCode: "+225"},
	"CM": {Name: "Cameroon", CallingCode: "+237"},
	"DE": {Name: "Germany", CallingCode: "+49"},
	"ES": {Name: "Spain", CallingCode: "+34"},
	"FR": {Name: "France", CallingCode: "+33"},
	"GB": {Name: "United Kingdom", CallingCode: "+44"},
	"GH": {Name: "Ghana", CallingCode: "+233"},
	"GM": {Name: "Gambia", CallingCode: "+220"},
	"GN": {Name: "Guinea", CallingCode: "+224"},
	"IT": {Name: "Italy", CallingCode: "+39"},
	"KE": {Name: "Kenya", CallingCode: "+254"},
	"LR": {Name: "Liberia", CallingCode: "+231"},
	"ML": {Name: "Mali", CallingCode: "+223"},
	"NE": {Name: "Niger", CallingCode: "+227"},
	"NG": {Name: "Nigeria", CallingCode: "+234"},
	"NL": {Name: "Netherlands", CallingCode: "+31"},
	"SL": {Name: "Sierra Leone", CallingCode: "+232"},
	"SN": {Name: "Senegal", CallingCode: "+221"},
	"TG": {Name: "Togo", CallingCode: "+228"},
	"US": {Name: "United States", CallingCode: "+1"},
	"ZA": {Name: "South Africa", CallingCode: "+27"},
}

// LookupCountry returns the country record for an ISO code.
func LookupCountry(code string) (Country, bool) {
	c, ok := countries[code]
	return c, ok
}

// CallingCode resolves the international calling code (with leading "+")
// for an ISO country code. Unknown codes resolve to an empty string.
func CallingCode(code string) string {
	return countries[code].CallingCode
}

// CountryName resolves the display name for an ISO country code, falling
// back to the code itself so review screens never render blank.
func CountryName(code string) string {
	if c, ok := countries[code]; ok {
		return c.Name
	}
	return code
}
