// Package queue defines the events exchanged over RabbitMQ and the audit
// consumer that records them.
package queue

// Queue names.  Each event type has its own durable queue.
const (
	InvoiceCreatedQueue        = "invoice.created"
	ContractStatusChangedQueue = "contract.status_changed"
)

// InvoiceCreatedEvent is published after an invoice is stored.
type InvoiceCreatedEvent struct {
	InvoiceID  string `json:"invoice_id"`
	ContractID string `json:"contract_id"`
	TemplateID string `json:"template_id,omitempty"`
	LandlordID uint64 `json:"landlord_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	DueDate    string `json:"due_date"`
	Total      string `json:"total"`
	CreatedAt  string `json:"created_at"`
}

// ContractStatusChangedEvent is published after a status transition,
// including the ones made by the expiry sweeper (ActorID zero).
type ContractStatusChangedEvent struct {
	ContractID string `json:"contract_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	ActorID    uint64 `json:"actor_id"`
	Note       string `json:"note,omitempty"`
	ChangedAt  string `json:"changed_at"`
}
