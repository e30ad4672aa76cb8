package notify

import (
	"fmt"
	"strings"

	"teeshop/internal/domain"
)

// Message is a composed email
type Message struct {
	Subject string
	Body    string
}

func orderSummary(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order ID: %s\n", o.ID)
	fmt.Fprintf(&b, "Design: %s (%s)\n", o.DesignName, o.DesignCode)
	fmt.Fprintf(&b, "Size: %s\n", o.Size)
	fmt.Fprintf(&b, "Quantity: %d\n", o.QuantityValue())
	fmt.Fprintf(&b, "Price: %s\n", o.DesignPrice)
	return b.String()
}

// ConfirmationMessage is sent to the customer when an order is placed
func ConfirmationMessage(o *domain.Order) Message {
	return Message{
		Subject: fmt.Sprintf("Order received: %s", o.DesignName),
		Body: fmt.Sprintf("Hi %s,\n\nThanks for your order! We will verify your payment and keep you posted.\n\n%s\nShipping to: %s\n",
			o.Name, orderSummary(o), o.Address()),
	}
}

// AdminAlertMessage tells the shop owner about a new order
func AdminAlertMessage(o *domain.Order) Message {
	return Message{
		Subject: fmt.Sprintf("New order: %s x%d", o.DesignCode, o.QuantityValue()),
		Body: fmt.Sprintf("A new order is waiting for payment verification.\n\n%sCustomer: %s\nPhone: %s\nEmail: %s\nAddress: %s\n",
			orderSummary(o), o.Name, o.Phone, o.Email, o.Address()),
	}
}

var statusLines = map[domain.Status]string{
	domain.StatusPending:    "Your order is back in the queue and waiting for payment verification.",
	domain.StatusVerifying:  "We are verifying your payment.",
	domain.StatusProcessing: "Your payment is confirmed and your T-shirt is being printed.",
	domain.StatusShipped:    "Good news, your order is on its way!",
	domain.StatusCompleted:  "Your order has been delivered. Enjoy your new T-shirt!",
	domain.StatusCancelled:  "Your order has been cancelled. Reply to this email if this is unexpected.",
}

// StatusMessage tells the customer their order moved to a new status
func StatusMessage(o *domain.Order) Message {
	line, ok := statusLines[o.Status]
	if !ok {
		line = "The status of your order changed to " + o.Status.String() + "."
	}
	return Message{
		Subject: fmt.Sprintf("Order %s: %s", o.Status, o.DesignName),
		Body:    fmt.Sprintf("Hi %s,\n\n%s\n\n%s", o.Name, line, orderSummary(o)),
	}
}
