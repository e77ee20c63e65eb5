package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/restock-radar/restock-radar/internal/domain/stock"
)

// Priority is the delivery priority of a notification.
type Priority int

// Priority levels, mapped onto message importance headers by the email notifier.
const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// String returns the priority name for logs.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Notification is one message to deliver to a set of recipients.
// All recipients receive it in a single send, retried as a unit.
type Notification struct {
	// Recipients are the destination addresses.
	Recipients []string
	// Subject is the message subject line.
	Subject string
	// Body is the plain-text message content.
	Body string
	// Priority maps to the message importance.
	Priority Priority
	// Products are the items that triggered this notification.
	Products []stock.Product
	// CreatedAt is when the notification was built.
	CreatedAt time.Time
}

// productURL is the public page for a product alias.
const productURL = "https://shop.amul.com/products/"

// NewRestockAlert builds the high-priority message for products that just
// came back in stock.
func NewRestockAlert(recipients []string, products []stock.Product) Notification {
	subject := fmt.Sprintf("Amul Stock Alert - %d %s Now Available!",
		len(products), pluralProduct(len(products)))

	var body strings.Builder

	body.WriteString("Great news! The following Amul protein products are now back in stock:\n\n")

	for _, product := range products {
		fmt.Fprintf(&body, "- %s\n", product.Name)
		fmt.Fprintf(&body, "  Stock Available: %d units\n", product.Quantity)
		fmt.Fprintf(&body, "  Product Link: %s%s\n\n", productURL, product.Alias)
	}

	body.WriteString("Don't miss out - these products tend to sell out quickly!\n")
	writeFooter(&body)

	return Notification{
		Recipients: recipients,
		Subject:    subject,
		Body:       body.String(),
		Priority:   PriorityHigh,
		Products:   products,
		CreatedAt:  time.Now(),
	}
}

// NewSoldOutAlert builds the normal-priority message for products that just
// went out of stock.
func NewSoldOutAlert(recipients []string, products []stock.Product) Notification {
	subject := fmt.Sprintf("Amul Stock Alert - %d %s Sold Out",
		len(products), pluralProduct(len(products)))

	var body strings.Builder

	body.WriteString("The following Amul protein products have gone out of stock:\n\n")

	for _, product := range products {
		fmt.Fprintf(&body, "- %s\n", product.Name)
		fmt.Fprintf(&body, "  Status: Out of Stock (%d units remaining)\n", product.Quantity)
		fmt.Fprintf(&body, "  Product Link: %s%s\n\n", productURL, product.Alias)
	}

	body.WriteString("These products were previously available but have now sold out.\n")
	body.WriteString("You'll receive another notification when they're back in stock.\n")
	writeFooter(&body)

	return Notification{
		Recipients: recipients,
		Subject:    subject,
		Body:       body.String(),
		Priority:   PriorityNormal,
		Products:   products,
		CreatedAt:  time.Now(),
	}
}

// NewTestNotification builds the low-priority message used to verify the
// delivery channel end to end.
func NewTestNotification(recipients []string) Notification {
	var body strings.Builder

	body.WriteString("This is a test notification to verify that the Restock Radar ")
	body.WriteString("notification system is working correctly.\n\n")
	body.WriteString("If you receive this message, your notification setup is functioning properly!\n")
	writeFooter(&body)

	return Notification{
		Recipients: recipients,
		Subject:    "Restock Radar - Test Notification",
		Body:       body.String(),
		Priority:   PriorityLow,
		CreatedAt:  time.Now(),
	}
}

// writeFooter appends the shared automated-notification footer.
func writeFooter(body *strings.Builder) {
	body.WriteString("\n---\n")
	body.WriteString("This is an automated notification from Restock Radar.\n")
	fmt.Fprintf(body, "Generated at: %s\n", time.Now().Format(time.RFC1123))
}

// pluralProduct returns "Product" or "Products" for subject lines.
func pluralProduct(n int) string {
	if n == 1 {
		return "Product"
	}

	return "Products"
}
