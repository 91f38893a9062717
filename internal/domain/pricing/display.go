package pricing

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

// NeedsConfirmation is shown when no price can be derived
const NeedsConfirmation = "要確認"

// SelectDisplayPrice returns the headline price of a lot. For an hourly
// display the amount always equals NormalizedHourlyRate, so the list and the
// hourly ordering agree.
func SelectDisplayPrice(lot entities.ParkingLot, day entities.DayType) entities.DisplayPrice {
	switch lot.Pricing.Kind {
	case entities.PricingStructured:
		rate := NormalizedHourlyRate(lot, day)
		if rate == RateUnknown {
			return unknownPrice()
		}
		return hourlyPrice(rate)
	case entities.PricingSimple:
		p := lot.Pricing.Simple
		if p == nil {
			return unknownPrice()
		}
		if v, ok := positive(p.Hourly); ok {
			return hourlyPrice(v)
		}
		if v, ok := positive(p.MaxDay); ok {
			return entities.DisplayPrice{Kind: entities.DisplayDaily, Amount: v, Text: formatYen(v)}
		}
		if token := firstToken(p.Unit); token != "" {
			return entities.DisplayPrice{Kind: entities.DisplayUnit, Text: token}
		}
	}
	return unknownPrice()
}

// DescribePricing returns the secondary price text of a lot: badges, the unit
// text of a simple price, and the band and cap lines of a structured price.
func DescribePricing(lot entities.ParkingLot, day entities.DayType) entities.PriceDetails {
	details := entities.PriceDetails{Badges: []string{}}

	switch lot.Pricing.Kind {
	case entities.PricingSimple:
		p := lot.Pricing.Simple
		if p == nil {
			break
		}
		if v, ok := positive(p.Hourly); ok {
			details.Badges = append(details.Badges, "時間 "+formatYen(v))
		}
		if v, ok := positive(p.MaxDay); ok {
			details.Badges = append(details.Badges, "1日最大 "+formatYen(v))
		}
		details.Unit = p.Unit

	case entities.PricingStructured:
		if lot.Pricing.Structured == nil {
			break
		}
		dp := lot.Pricing.Structured.For(day)
		if rate := NormalizedHourlyRate(lot, day); rate != RateUnknown {
			details.Badges = append(details.Badges, "時間 "+formatYen(rate))
		}
		if v, ok := positive(dp.Max); ok {
			details.Badges = append(details.Badges, "最大 "+formatYen(v))
		}
		for _, band := range []*entities.Band{dp.Day, dp.Night} {
			if band != nil {
				details.Bands = append(details.Bands, bandLine(band))
			}
		}
		if v, ok := positive(dp.Max); ok {
			details.Caps = append(details.Caps, capLine(v, dp.MaxDesc))
		}
		if v, ok := positive(dp.Max2); ok {
			details.Caps = append(details.Caps, capLine(v, dp.Max2Desc))
		}
	}
	return details
}

func hourlyPrice(rate int) entities.DisplayPrice {
	return entities.DisplayPrice{Kind: entities.DisplayHourly, Amount: rate, Text: formatYen(rate) + "/h"}
}

func unknownPrice() entities.DisplayPrice {
	return entities.DisplayPrice{Kind: entities.DisplayUnknown, Text: NeedsConfirmation}
}

func bandLine(b *entities.Band) string {
	span := b.Start + "-" + b.End
	if b.Price <= 0 || b.UnitMinutes <= 0 {
		return span + " " + NeedsConfirmation
	}
	return fmt.Sprintf("%s %s/%d分", span, formatYen(b.Price), b.UnitMinutes)
}

func capLine(amount int, desc string) string {
	line := "最大 " + formatYen(amount)
	if desc = strings.TrimSpace(desc); desc != "" {
		line += " (" + desc + ")"
	}
	return line
}

func firstToken(unit string) string {
	fields := strings.Fields(unit)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// formatYen renders an amount with grouped digits, e.g. ¥1,200
func formatYen(amount int) string {
	return message.NewPrinter(language.Japanese).Sprintf("¥%d", amount)
}
