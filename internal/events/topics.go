package events

// Topics published by the pricing and checkout flows.
const (
	// TopicCartReconciled fires when a quote removed unavailable lines.
	TopicCartReconciled = "cart.reconciled"
	// TopicCheckoutRejected fires when checkout refuses a cart.
	TopicCheckoutRejected = "checkout.rejected"
	// TopicOrderSubmitted fires after a successful order submission.
	TopicOrderSubmitted = "order.submitted"
)
