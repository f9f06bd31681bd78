package pricing

import "math"

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	DiscountNone        DiscountKind = "none"
	DiscountPercentage  DiscountKind = "percentage"
	DiscountFixedAmount DiscountKind = "amount"
)

// Discount is either no discount, a percentage of the subtotal or a fixed amount.
type Discount struct {
	Kind  DiscountKind
	Value float64
}

func NoDiscount() Discount { return Discount{Kind: DiscountNone} }

func PercentageDiscount(percent float64) Discount {
	return Discount{Kind: DiscountPercentage, Value: percent}
}

func FixedAmountDiscount(amount float64) Discount {
	return Discount{Kind: DiscountFixedAmount, Value: amount}
}

// Applied reports whether the discount reduces the subtotal at all.
func (d Discount) Applied() bool {
	return d.Kind == DiscountPercentage || d.Kind == DiscountFixedAmount
}

func (d Discount) validate() error {
	switch d.Kind {
	case "", DiscountNone:
		return nil
	case DiscountPercentage:
		if !isFinite(d.Value) || d.Value < 0 || d.Value > 100 {
			return invalid(KindInvalidPercentage, "discountPercentage", "must be between 0 and 100, got %v", d.Value)
		}
	case DiscountFixedAmount:
		if !isFinite(d.Value) || d.Value < 0 {
			return invalid(KindInvalidRate, "discountAmount", "must be a non-negative number, got %v", d.Value)
		}
	default:
		return invalid(KindInvalidDiscountType, "discountType", "unknown discount type %q", d.Kind)
	}
	return nil
}

// resolve returns the amount taken off subtotal. It never exceeds subtotal.
func (d Discount) resolve(subtotal float64) float64 {
	switch d.Kind {
	case DiscountPercentage:
		return subtotal * d.Value / 100
	case DiscountFixedAmount:
		return math.Min(d.Value, subtotal)
	default:
		return 0
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
