package quotes

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Simplici0/cleanquote/internal/pricing"
)

var serviceNames = map[pricing.Service]string{
	pricing.ServiceGeneral: "General clean",
	pricing.ServiceDeep:    "Deep clean",
	pricing.ServiceMove:    "Move in/out clean",
}

// Summary renders rec as plain text for pasting into an email or message.
func Summary(rec Record) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	p.Fprintf(&b, "Quote %s (#%d)\n", rec.Reference, rec.ID)
	p.Fprintf(&b, "Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04 MST"))
	if rec.Customer.Name != "" {
		p.Fprintf(&b, "Customer: %s\n", rec.Customer.Name)
	}
	if rec.Customer.Suburb != "" || rec.Customer.Postcode != "" {
		p.Fprintf(&b, "Location: %s\n", strings.TrimSpace(rec.Customer.Suburb+" "+rec.Customer.Postcode))
	}

	name, ok := serviceNames[rec.Service]
	if !ok {
		name = string(rec.Service)
	}
	b.WriteString("\n")
	p.Fprintf(&b, "%s, %d bedroom(s), %d bathroom(s)\n", name, rec.Bedrooms, rec.Bathrooms)
	p.Fprintf(&b, "Main service: %.2f h  $%.2f\n", rec.MainServiceHours, rec.MainServiceCost)

	if len(rec.Addons) > 0 {
		b.WriteString("Add-ons:\n")
		for _, line := range rec.Addons {
			if line.Custom {
				p.Fprintf(&b, "  - %s: $%.2f\n", line.Name, line.Cost)
				continue
			}
			p.Fprintf(&b, "  - %s: %.2f h  $%.2f\n", pricing.DisplayName(line.Name), line.Hours, line.Cost)
		}
	}

	b.WriteString("\n")
	if rec.SuburbMultiplier != 1 {
		p.Fprintf(&b, "Before regional adjustment: $%.2f\n", rec.PreMultiplierSubtotal)
		p.Fprintf(&b, "Regional multiplier: x%.2f\n", rec.SuburbMultiplier)
	}
	p.Fprintf(&b, "Subtotal: $%.2f\n", rec.Subtotal)
	if rec.DiscountApplied && rec.DiscountAmount > 0 {
		if rec.DiscountKind == pricing.DiscountPercentage {
			p.Fprintf(&b, "Discount (%.0f%%): -$%.2f\n", rec.DiscountPercentage, rec.DiscountAmount)
		} else {
			p.Fprintf(&b, "Discount: -$%.2f\n", rec.DiscountAmount)
		}
	}
	p.Fprintf(&b, "GST (%.0f%%): $%.2f\n", pricing.GSTRate*100, rec.GST)
	p.Fprintf(&b, "Total: $%.2f\n", rec.Total)
	if rec.DepositAmount > 0 {
		p.Fprintf(&b, "Deposit (%.0f%%): $%.2f\n", rec.DepositPercentage, rec.DepositAmount)
	}
	p.Fprintf(&b, "Estimated time: %.2f h\n", rec.TotalHours)

	return b.String()
}
