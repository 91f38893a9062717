package entities

// PricingKind tags which pricing shape a lot carries
type PricingKind string

const (
	// PricingSimple is a flat hourly rate and/or daily cap
	PricingSimple PricingKind = "simple"

	// PricingStructured is a weekday/weekend split with time-of-day bands
	PricingStructured PricingKind = "structured"
)

// Pricing is the tagged pricing variant of a lot. Exactly one of Simple and
// Structured is set, matching Kind.
type Pricing struct {
	Kind       PricingKind
	Simple     *SimplePrice
	Structured *StructuredPrice
}

// SimplePricing wraps a simple price
func SimplePricing(p SimplePrice) Pricing {
	return Pricing{Kind: PricingSimple, Simple: &p}
}

// StructuredPricing wraps a structured price
func StructuredPricing(p StructuredPrice) Pricing {
	return Pricing{Kind: PricingStructured, Structured: &p}
}

// SimplePrice is yen per 60 minutes and/or a yen cap for a 24-hour stay
type SimplePrice struct {
	Unit   string `json:"unit"`
	Hourly *int   `json:"hourly,omitempty"`
	MaxDay *int   `json:"max_day,omitempty"`
}

// StructuredPrice splits pricing by day type
type StructuredPrice struct {
	Weekday DayPricing `json:"weekday"`
	Weekend DayPricing `json:"weekend"`
}

// For returns the pricing that applies on the given day type
func (p StructuredPrice) For(day DayType) DayPricing {
	if day == Weekend {
		return p.Weekend
	}
	return p.Weekday
}

// DayPricing holds the bands and caps of one day type
type DayPricing struct {
	Day      *Band  `json:"day,omitempty"`
	Night    *Band  `json:"night,omitempty"`
	Max      *int   `json:"max"`
	MaxDesc  string `json:"max_desc,omitempty"`
	Max2     *int   `json:"max2,omitempty"`
	Max2Desc string `json:"max2_desc,omitempty"`
}

// Band is a time-of-day rate: Price yen per UnitMinutes between Start and End.
// A Price of 0 means free or unknown.
type Band struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	UnitMinutes int    `json:"unit_minutes"`
	Price       int    `json:"price"`
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
