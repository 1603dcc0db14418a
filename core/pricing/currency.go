package pricing

// CurrencyInfo describes how to present base-currency amounts to a user in a
// given country. Rate converts from INR.
type CurrencyInfo struct {
	Code   string  `json:"code"`
	Symbol string  `json:"currency"`
	Rate   float64 `json:"rate"`
}

var currencies = map[string]CurrencyInfo{
	"India":          {Code: "INR", Symbol: "₹", Rate: 1.0},
	"United States":  {Code: "USD", Symbol: "$", Rate: 0.012},
	"United Kingdom": {Code: "GBP", Symbol: "£", Rate: 0.0094},
	"European Union": {Code: "EUR", Symbol: "€", Rate: 0.011},
	"Canada":         {Code: "CAD", Symbol: "C$", Rate: 0.016},
	"Australia":      {Code: "AUD", Symbol: "A$", Rate: 0.018},
	"Japan":          {Code: "JPY", Symbol: "¥", Rate: 1.76},
	"China":          {Code: "CNY", Symbol: "¥", Rate: 0.086},
	"Russia":         {Code: "RUB", Symbol: "₽", Rate: 1.08},
	"Brazil":         {Code: "BRL", Symbol: "R$", Rate: 0.059},
	"South Africa":   {Code: "ZAR", Symbol: "R", Rate: 0.22},
	"UAE":            {Code: "AED", Symbol: "AED", Rate: 0.044},
	"Singapore":      {Code: "SGD", Symbol: "S$", Rate: 0.016},
	"Switzerland":    {Code: "CHF", Symbol: "Fr", Rate: 0.010},
	"New Zealand":    {Code: "NZD", Symbol: "NZ$", Rate: 0.019},
	"Mexico":         {Code: "MXN", Symbol: "$", Rate: 0.20},
	"South Korea":    {Code: "KRW", Symbol: "₩", Rate: 15.8},
	"Sweden":         {Code: "SEK", Symbol: "kr", Rate: 0.12},
	"Norway":         {Code: "NOK", Symbol: "kr", Rate: 0.12},
	"Saudi Arabia":   {Code: "SAR", Symbol: "SR", Rate: 0.045},
	"Turkey":         {Code: "TRY", Symbol: "₺", Rate: 0.36},
	"Thailand":       {Code: "THB", Symbol: "฿", Rate: 0.42},
	"Malaysia":       {Code: "MYR", Symbol: "RM", Rate: 0.056},
	"Indonesia":      {Code: "IDR", Symbol: "Rp", Rate: 186.0},
	"Vietnam":        {Code: "VND", Symbol: "₫", Rate: 293.0},
	"Pakistan":       {Code: "PKR", Symbol: "Rs", Rate: 3.3},
	"Sri Lanka":      {Code: "LKR", Symbol: "Rs", Rate: 3.6},
	"Bangladesh":     {Code: "BDT", Symbol: "৳", Rate: 1.3},
	"Nepal":          {Code: "NPR", Symbol: "Rs", Rate: 1.6},
}

var countryAliases = map[string]string{
	"USA":                  "United States",
	"US":                   "United States",
	"UK":                   "United Kingdom",
	"United Arab Emirates": "UAE",
}

// CurrencyFor returns the presentation currency for a country. Unknown or
// empty countries fall back to the base currency.
func CurrencyFor(country string) CurrencyInfo {
	if country == "" {
		return currencies["India"]
	}
	if alias, ok := countryAliases[country]; ok {
		country = alias
	}
	if info, ok := currencies[country]; ok {
		return info
	}
	return currencies["India"]
}
