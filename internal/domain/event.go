package domain

import "time"

// Event é o registro de auditoria emitido a cada transição de estado do motor.
// A entrega e o armazenamento são responsabilidade do sink externo (§ coletor de eventos);
// o motor apenas emite.
type Event struct {
	EntityType string    `json:"entity_type"` // "request" | "transfer_notification" | "transfer" | "inventory"
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
