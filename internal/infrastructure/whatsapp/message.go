package whatsapp

import (
	"fmt"
	"strings"

	domain "github.com/mkassab/orderlink/internal/domain/order"
)

const (
	banner          = "*** NEW ORDER ***"
	rule            = "--------------------"
	indent          = "   "
	cityPlaceholder = "N/A"
	soldOutTag      = "[SOLD OUT]"
	taxLine         = "Tax will be added if applicable."
	confirmLine     = "Please confirm this order."

	dateLayout = "Monday, January 2, 2006"
)

// RenderText builds the human-readable order summary, one template line per
// slice entry joined with newlines. It is a pure function of the submitted
// order: identical inputs produce byte-identical output.
func RenderText(o *domain.SubmittedOrder) string {
	lines := []string{
		banner,
		rule,
		"Order ID: " + o.Identifier,
		"Date: " + o.SubmittedAt.Format(dateLayout),
		"Customer: " + o.CompanyName,
		"City: " + cityOrPlaceholder(o.City),
		rule,
	}

	for _, l := range o.Lines {
		bullet := "* " + l.Title
		if l.QuantityLabel != "" {
			bullet += " " + l.QuantityLabel
		}
		if l.LocalizedTitle != "" {
			bullet += " (" + l.LocalizedTitle + ")"
		}
		if l.SoldOut {
			bullet += " " + soldOutTag
		}
		lines = append(lines,
			bullet,
			fmt.Sprintf("%sQty: %d%sSubtotal: $%s", indent, l.Quantity, indent, l.Subtotal().StringFixed(2)),
		)
	}

	lines = append(lines,
		rule,
		"Subtotal: $"+o.Total.StringFixed(2),
		taxLine,
		rule,
		confirmLine,
	)

	return strings.Join(lines, "\n")
}

func cityOrPlaceholder(city string) string {
	if city == "" {
		return cityPlaceholder
	}
	return city
}
