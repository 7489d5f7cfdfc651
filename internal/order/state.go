// ABOUTME: Conversation states for the ordering flow
// ABOUTME: Each state names what the bot is waiting for from the customer

package order

// State is the step a customer conversation is currently in.
type State int

const (
	StateStart State = iota
	StateAwaitName
	StateAwaitOrderType
	StateAwaitAddress
	StateAwaitItems
	StateAwaitObservation
	StateAwaitPaymentMethod
	StateAwaitCashAmount
	StateCompleted
)

var stateNames = map[State]string{
	StateStart:              "start",
	StateAwaitName:          "await_name",
	StateAwaitOrderType:     "await_order_type",
	StateAwaitAddress:       "await_address",
	StateAwaitItems:         "await_items",
	StateAwaitObservation:   "await_observation",
	StateAwaitPaymentMethod: "await_payment_method",
	StateAwaitCashAmount:    "await_cash_amount",
	StateCompleted:          "completed",
}

// String returns the log-friendly name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
