package entities

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMixedPricing is returned for a record that carries both pricing shapes.
	ErrMixedPricing = errors.New("record has both price and price_structure")

	// ErrMissingPricing is returned for a record that carries no pricing shape.
	ErrMissingPricing = errors.New("record has neither price nor price_structure")
)

// ParkingLot represents one parking facility near the station
type ParkingLot struct {
	ID       int
	Name     string
	Coords   Coordinates
	Distance string
	Capacity string
	Note     string
	Pricing  Pricing
}

// Coordinates is a latitude/longitude pair, encoded as [lat, lng]
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// MarshalJSON encodes the pair as a two element array
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Latitude, c.Longitude})
}

// UnmarshalJSON decodes a two element array
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coords: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coords: expected [lat, lng], got %d values", len(pair))
	}
	c.Latitude, c.Longitude = pair[0], pair[1]
	return nil
}

// parkingLotRecord is the on-disk shape of a lot. Optional strings are written
// as null, matching the data tools that maintain the file.
type parkingLotRecord struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	Coords         Coordinates      `json:"coords"`
	Distance       looseString      `json:"distance,omitempty"`
	Capacity       looseString      `json:"capacity"`
	Note           looseString      `json:"note"`
	Price          *SimplePrice     `json:"price,omitempty"`
	PriceStructure *StructuredPrice `json:"price_structure,omitempty"`
}

// MarshalJSON writes the lot with its pricing under the key of its variant
func (l ParkingLot) MarshalJSON() ([]byte, error) {
	rec := parkingLotRecord{
		ID:       l.ID,
		Name:     l.Name,
		Coords:   l.Coords,
		Distance: looseString(l.Distance),
		Capacity: looseString(l.Capacity),
		Note:     looseString(l.Note),
	}
	switch l.Pricing.Kind {
	case PricingSimple:
		rec.Price = l.Pricing.Simple
	case PricingStructured:
		rec.PriceStructure = l.Pricing.Structured
	}
	return json.Marshal(rec)
}

// UnmarshalJSON reads a lot and tags its pricing variant from the key present
func (l *ParkingLot) UnmarshalJSON(data []byte) error {
	var rec parkingLotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	var pricing Pricing
	switch {
	case rec.Price != nil && rec.PriceStructure != nil:
		return fmt.Errorf("lot %d: %w", rec.ID, ErrMixedPricing)
	case rec.Price != nil:
		pricing = SimplePricing(*rec.Price)
	case rec.PriceStructure != nil:
		pricing = StructuredPricing(*rec.PriceStructure)
	default:
		return fmt.Errorf("lot %d: %w", rec.ID, ErrMissingPricing)
	}

	*l = ParkingLot{
		ID:       rec.ID,
		Name:     rec.Name,
		Coords:   rec.Coords,
		Distance: string(rec.Distance),
		Capacity: string(rec.Capacity),
		Note:     string(rec.Note),
		Pricing:  pricing,
	}
	return nil
}

// looseString accepts a JSON string, number or null. Hand-edited data files
// sometimes carry capacity as a bare number.
type looseString string

func (s looseString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *looseString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = looseString(num.String())
	return nil
}

// ValidateLots checks collection-level invariants: ids are positive and unique
func ValidateLots(lots []ParkingLot) error {
	seen := make(map[int]struct{}, len(lots))
	for i, lot := range lots {
		if lot.ID <= 0 {
			return fmt.Errorf("lot at index %d: invalid id %d", i, lot.ID)
		}
		if _, dup := seen[lot.ID]; dup {
			return fmt.Errorf("lot at index %d: duplicate id %d", i, lot.ID)
		}
		seen[lot.ID] = struct{}{}

		if lot.Pricing.Kind != PricingSimple && lot.Pricing.Kind != PricingStructured {
			return fmt.Errorf("lot %d: %w", lot.ID, ErrMissingPricing)
		}
	}
	return nil
}

// NextID returns the id a newly appended lot receives
func NextID(lots []ParkingLot) int {
	maxID := 0
	for _, lot := range lots {
		if lot.ID > maxID {
			maxID = lot.ID
		}
	}
	return maxID + 1
}
