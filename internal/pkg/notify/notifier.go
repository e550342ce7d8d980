package notify

import (
	"context"
	"encoding/json"
	"time"

	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/logger"
)

// Message é o envelope enfileirado para o canal de entrega externo.
type Message struct {
	Kind        string    `json:"kind"` // "approval-needed" | "request-resolved"
	RecipientID string    `json:"recipient_id,omitempty"`
	WarehouseID string    `json:"warehouse_id,omitempty"`
	EntityID    string    `json:"entity_id"`
	Body        string    `json:"body"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Notifier é o contrato de enfileiramento de notificações humanas.
// O canal de entrega (e-mail, chat, push) é externo a este núcleo.
type Notifier interface {
	ApprovalNeeded(ctx context.Context, warehouseID, entityID, body string) error
	RequestResolved(ctx context.Context, recipientID, requestID, body string) error
}

// RedisNotifier enfileira mensagens em uma lista do Redis, consumida pelo
// serviço de entrega externo.
type RedisNotifier struct {
	client cache.Client
	queue  string
	logger logger.Logger
}

// NewRedisNotifier cria um Notifier sobre a fila informada.
func NewRedisNotifier(client cache.Client, queue string, log logger.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, queue: queue, logger: log}
}

// ApprovalNeeded enfileira um aviso de "aprovação necessária" para os
// revisores do armazém de origem.
func (n *RedisNotifier) ApprovalNeeded(ctx context.Context, warehouseID, entityID, body string) error {
	return n.push(ctx, Message{
		Kind:        "approval-needed",
		WarehouseID: warehouseID,
		EntityID:    entityID,
		Body:        body,
		EnqueuedAt:  time.Now().UTC(),
	})
}

// RequestResolved enfileira um aviso de "requisição resolvida" para o solicitante.
func (n *RedisNotifier) RequestResolved(ctx context.Context, recipientID, requestID, body string) error {
	return n.push(ctx, Message{
		Kind:        "request-resolved",
		RecipientID: recipientID,
		EntityID:    requestID,
		Body:        body,
		EnqueuedAt:  time.Now().UTC(),
	})
}

func (n *RedisNotifier) push(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := n.client.RPush(ctx, n.queue, payload); err != nil {
		// Entrega é melhor-esforço: a transição de estado já foi commitada.
		n.logger.Warn("Falha ao enfileirar notificação.", map[string]interface{}{
			"kind": msg.Kind, "entity_id": msg.EntityID,
		})
		return err
	}
	return nil
}
