package notification

import (
	"fmt"
	"strings"

	apppromotion "github.com/crm/backend/internal/application/promotion"
)

// discountSubject builds the email subject line for an applied discount
func discountSubject(n apppromotion.DiscountNotification) string {
	return fmt.Sprintf("You saved %s on invoice %s", n.Savings.String(), n.InvoiceNumber)
}

// discountText builds the plain-text message shared by email and WhatsApp
func discountText(n apppromotion.DiscountNotification) string {
	var b strings.Builder

	name := strings.TrimSpace(n.ClientName)
	if name == "" {
		name = "there"
	}

	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Good news: the %q discount was applied to invoice %s.\n", n.RuleName, n.InvoiceNumber)
	fmt.Fprintf(&b, "You saved %s. The new total is %s.\n\n", n.Savings.String(), n.FinalAmount.String())
	b.WriteString("Thank you for your business!")

	return b.String()
}

// discountHTML builds the HTML body for the email channel
func discountHTML(n apppromotion.DiscountNotification) string {
	name := strings.TrimSpace(n.ClientName)
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(
		`<p>Hi %s,</p>`+
			`<p>Good news: the <strong>%s</strong> discount was applied to invoice %s.</p>`+
			`<p>You saved <strong>%s</strong>. The new total is <strong>%s</strong>.</p>`+
			`<p>Thank you for your business!</p>`,
		name, n.RuleName, n.InvoiceNumber, n.Savings.String(), n.FinalAmount.String())
}
