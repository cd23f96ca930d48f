package notifier

import (
	"testing"
	"time"

	"fulfillment-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$10.00", FormatAmount(1000))
	assert.Equal(t, "$0.05", FormatAmount(5))
	assert.Equal(t, "$12.34", FormatAmount(1234))
	assert.Equal(t, "-$1.50", FormatAmount(-150))
}

func TestOrderSubject(t *testing.T) {
	assert.Equal(t, "Order Confirmation - 42", OrderSubject("placed", 42))
	assert.Equal(t, "Order Cancelled - 42", OrderSubject("cancelled", 42))
	assert.Equal(t, "Order Update - 42", OrderSubject("completed", 42))
}

func TestOrderBody(t *testing.T) {
	eventTime := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	items := []models.OrderItemView{
		{ProductName: "Espresso Beans", Quantity: 2, UnitPrice: 1250},
		{ProductName: "Grinder", Quantity: 1, UnitPrice: 9900},
	}

	body := OrderBody("Ada", 42, "placed", eventTime, items, 12400)

	assert.Contains(t, body, "Hi Ada,")
	assert.Contains(t, body, "Your order 42 was placed on 2024-03-10 14:30 UTC.")
	assert.Contains(t, body, "Product: Espresso Beans, Quantity: 2, Price: $12.50")
	assert.Contains(t, body, "Product: Grinder, Quantity: 1, Price: $99.00")
	assert.Contains(t, body, "Total amount: $124.00")
	assert.Contains(t, body, "Thank you for shopping with us!")
}
