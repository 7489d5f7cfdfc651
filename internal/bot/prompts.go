// ABOUTME: Customer-facing texts for the ordering conversation
// ABOUTME: Messages are markdown; the transport renders them for the channel

package bot

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Luk-bit/Facil-assim-food/internal/order"
	"github.com/Luk-bit/Facil-assim-food/internal/store"
)

const (
	promptName         = "Hello! What is your full name?"
	repromptName       = "Please tell us your full name."
	promptOrderType    = "Would you like **pickup** or **delivery**?\nType 1 for pickup or 2 for delivery."
	repromptOrderType  = "Please type 1 for pickup or 2 for delivery."
	promptAddress      = "Got it! Please send your full delivery address:"
	repromptAddress    = "Please send your full delivery address."
	repromptItems      = "Invalid option. Try again using the item numbers from the menu."
	promptPayment      = "Now choose a payment method:\n1 Cash\n2 Card\n3 PIX (instant transfer)"
	repromptPayment    = "Please type 1 for cash, 2 for card or 3 for PIX."
	promptCash         = "How much will you pay in cash?"
	repromptCash       = "Invalid amount. Send a number (e.g. 50 or 50,00)."
	msgAlreadyPlaced   = "Order already registered! To start a new order, send any message."
	msgIdleClosed      = "Order closed due to inactivity."
	msgTemporaryFault  = "Sorry, we could not load that right now. Please send your last message again."
	addressUnavailable = "Address not registered."
	noNoteKeyword      = "no"
)

func pickupMessage(address string) string {
	return "You chose **pickup**.\n\nOur address is:\n" + address + "\n\nHere is our menu."
}

func menuMessage(items []store.MenuItem, currency string) string {
	var b strings.Builder
	b.WriteString("**Menu:**\n\n")
	for _, item := range items {
		b.WriteString(item.ID)
		b.WriteString(" - ")
		b.WriteString(item.Name)
		b.WriteString("  ")
		b.WriteString(order.FormatMoney(currency, item.Price))
		b.WriteString("\n")
	}
	b.WriteString("\nType the **item numbers** separated by commas:")
	return b.String()
}

// itemsText renders one "Name R$0.00" line per selected item.
func itemsText(lines []order.Line, currency string) string {
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = l.Name + " " + order.FormatMoney(currency, l.Price)
	}
	return strings.Join(rows, "\n")
}

func feeLine(d order.Draft, fee decimal.Decimal, currency string) string {
	if d.Kind != order.KindDelivery {
		return ""
	}
	return "Delivery fee: " + order.FormatMoney(currency, fee) + "\n"
}

func summaryMessage(d order.Draft, fee decimal.Decimal, currency string) string {
	return "Order summary:\n" + d.Items + "\n\n" +
		feeLine(d, fee, currency) +
		"TOTAL: " + order.FormatMoney(currency, d.Total) + "\n\n" +
		"Would you like to add a note to your order?\nE.g. no corn, no onion...\nIf not, type **no** to continue."
}

func confirmationMessage(d order.Draft, fee decimal.Decimal, currency string) string {
	var b strings.Builder
	b.WriteString("Order confirmed!\n\n")
	b.WriteString(d.Items)
	b.WriteString("\n")
	b.WriteString(feeLine(d, fee, currency))
	b.WriteString("TOTAL: " + order.FormatMoney(currency, d.Total))
	b.WriteString("\nPayment: " + d.Payment.Label())
	if d.Payment == order.PaymentCash && d.CashReceived != nil && d.Change != nil {
		b.WriteString("\nCash received: " + order.FormatMoney(currency, *d.CashReceived))
		b.WriteString("\nChange: " + order.FormatMoney(currency, *d.Change))
	}
	if note := d.Note(); note != "" {
		b.WriteString("\nNote: " + note)
	}
	return b.String()
}
