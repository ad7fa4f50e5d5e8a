package outbox

// Outbox rows are persisted inside the same DB transaction as the ledger
// change they announce. The worker relay reads pending rows in append order
// and publishes them to the message bus.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
)
