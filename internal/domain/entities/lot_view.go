package entities

// DisplayKind describes what a headline price represents
type DisplayKind string

const (
	DisplayHourly  DisplayKind = "hourly"
	DisplayDaily   DisplayKind = "daily"
	DisplayUnit    DisplayKind = "unit"
	DisplayUnknown DisplayKind = "unknown"
)

// DisplayPrice is the headline price drawn on a marker and list row
type DisplayPrice struct {
	Kind   DisplayKind `json:"kind"`
	Amount int         `json:"amount,omitempty"`
	Text   string      `json:"text"`
}

// PriceDetails is the secondary price text shown in a popup or list row
type PriceDetails struct {
	Badges []string `json:"badges"`
	Unit   string   `json:"unit,omitempty"`
	Bands  []string `json:"bands,omitempty"`
	Caps   []string `json:"caps,omitempty"`
}

// LotView is one derived row: a lot plus everything the renderer needs for it
type LotView struct {
	Lot            ParkingLot   `json:"lot"`
	NormalizedRate int          `json:"normalized_rate"`
	DailyCap       int          `json:"daily_cap"`
	DistanceMeters int          `json:"distance_meters"`
	Display        DisplayPrice `json:"display"`
	Details        PriceDetails `json:"details"`
	Selected       bool         `json:"selected"`
}
