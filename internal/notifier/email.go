package notifier

import (
	"fmt"
	"strings"
	"time"

	"fulfillment-service/internal/models"
)

// OrderSubject builds the subject line for an order lifecycle message.
func OrderSubject(action string, orderID int64) string {
	switch action {
	case "placed":
		return fmt.Sprintf("Order Confirmation - %d", orderID)
	case "cancelled":
		return fmt.Sprintf("Order Cancelled - %d", orderID)
	default:
		return fmt.Sprintf("Order Update - %d", orderID)
	}
}

// OrderBody builds the plain-text body for an order lifecycle message:
// greeting, what happened and when, a per-item summary, and the total.
func OrderBody(customerName string, orderID int64, action string, eventTime time.Time, items []models.OrderItemView, totalAmount int64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", customerName)
	fmt.Fprintf(&b, "Your order %d was %s on %s UTC.\n\n", orderID, action, eventTime.UTC().Format("2006-01-02 15:04"))
	b.WriteString("Order summary:\n")

	for _, item := range items {
		fmt.Fprintf(&b, " - Product: %s, Quantity: %d, Price: %s\n", item.ProductName, item.Quantity, FormatAmount(item.UnitPrice))
	}

	fmt.Fprintf(&b, "\nTotal amount: %s\n", FormatAmount(totalAmount))
	b.WriteString("\nThank you for shopping with us!\n")

	return b.String()
}

// FormatAmount renders integer cents as a currency string.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
