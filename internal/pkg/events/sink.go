package events

import (
	"context"
	"encoding/json"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/logger"
)

// Sink é o contrato do coletor de eventos de auditoria. O motor emite um
// evento por transição de estado; entrega e armazenamento são do coletor.
type Sink interface {
	Emit(ctx context.Context, event domain.Event) error
}

// RedisSink publica eventos como JSON em um canal pub/sub do Redis.
// Qualquer camada de cache/UI interessada assina o canal; o motor não
// compartilha estado mutável com elas.
type RedisSink struct {
	client  cache.Client
	channel string
	logger  logger.Logger
}

// NewRedisSink cria um Sink que publica no canal informado.
func NewRedisSink(client cache.Client, channel string, log logger.Logger) *RedisSink {
	return &RedisSink{client: client, channel: channel, logger: log}
}

// Emit serializa o evento e o publica. Falha de publicação é registrada,
// mas não derruba a transição de estado que a originou: o commit no banco
// já aconteceu e não pode ser revertido por falha do sink.
func (s *RedisSink) Emit(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Falha ao serializar evento de auditoria.", err)
		return err
	}

	if err := s.client.Publish(ctx, s.channel, payload); err != nil {
		s.logger.Warn("Falha ao publicar evento de auditoria. Evento descartado.", map[string]interface{}{
			"entity_type": event.EntityType,
			"entity_id":   event.EntityID,
			"action":      event.Action,
		})
		return err
	}
	return nil
}

// LogSink é uma implementação de Sink que apenas registra o evento no log.
// Útil em desenvolvimento e testes.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink cria um Sink que escreve eventos no logger.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Emit(_ context.Context, event domain.Event) error {
	s.logger.Info("Evento de auditoria emitido.", map[string]interface{}{
		"entity_type": event.EntityType,
		"entity_id":   event.EntityID,
		"action":      event.Action,
		"actor_id":    event.ActorID,
		"old_status":  event.OldStatus,
		"new_status":  event.NewStatus,
	})
	return nil
}
