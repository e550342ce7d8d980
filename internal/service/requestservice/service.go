package requestservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/events"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/notify"
	"stockflow/internal/service/policy"
	"stockflow/internal/service/sufficiency"
)

// RequestRepository define o contrato que o Gerenciador de Ciclo de Vida
// espera da camada de Persistência.
type RequestRepository interface {
	Create(ctx context.Context, req domain.Request, notifications []domain.TransferNotification) (domain.Request, error)
	FindByID(ctx context.Context, id string) (domain.Request, error)
	FindAll(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (domain.Request, error)
	Cancel(ctx context.Context, id string) (domain.Request, error)
}

// LineResolver é o contrato do Resolvedor de Suficiência.
type LineResolver interface {
	ResolveLine(ctx context.Context, line domain.RequestLine, destinationWarehouseID string) (sufficiency.Outcome, error)
}

// Ledger é a fatia do Stock Ledger usada na transição para fulfilled.
type Ledger interface {
	FulfillRequest(ctx context.Context, requestID string) (domain.Request, error)
}

// CatalogReader são as consultas somente-leitura aos dados mestre.
type CatalogReader interface {
	FindByID(ctx context.Context, id string) (domain.Item, error)
}

// WarehouseReader são as consultas somente-leitura de armazéns e operadores.
type WarehouseReader interface {
	GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error)
	ListOperators(ctx context.Context, warehouseID string) ([]domain.WarehouseOperator, error)
}

// Service é o Gerenciador de Ciclo de Vida de Requisições: dono do grafo de
// estados da Requisição, valida submissões e orquestra o Resolvedor.
type Service struct {
	repo      RequestRepository
	resolver  LineResolver
	ledger    Ledger
	catalog   CatalogReader
	warehouse WarehouseReader
	policy    policy.Policy
	sink      events.Sink
	notifier  notify.Notifier
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Requisições.
func NewService(
	repo RequestRepository,
	resolver LineResolver,
	ledger Ledger,
	catalog CatalogReader,
	warehouse WarehouseReader,
	pol policy.Policy,
	sink events.Sink,
	notifier notify.Notifier,
	logger logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		ledger:    ledger,
		catalog:   catalog,
		warehouse: warehouse,
		policy:    pol,
		sink:      sink,
		notifier:  notifier,
		logger:    logger,
	}
}

// Submit valida e submete uma Requisição, resolve a suficiência de cada
// linha e agrega os vereditos no status inicial:
//   - todas as linhas locais      -> approved (ou submitted, se acima do limite de auto-aprovação);
//   - alguma linha transferível   -> pending-transfer (notificações criadas junto);
//   - alguma linha insolúvel      -> rejected ("estoque insuficiente no sistema inteiro").
func (s *Service) Submit(ctx context.Context, actor domain.Actor, input domain.SubmitRequestInput) (domain.Request, error) {
	s.logger.Debug("Iniciando submissão de requisição no serviço.", map[string]interface{}{
		"actor_id": actor.ID, "origin_warehouse_id": input.OriginWarehouseID, "lines": len(input.Lines),
	})

	if !s.policy.CanResolve(actor, policy.ActionSubmitRequest, policy.Scope{}) {
		return domain.Request{}, apperror.NewAuthorizationError("Este ator não pode submeter requisições.")
	}

	if input.Priority == "" {
		input.Priority = domain.PriorityNormal
	}
	if err := s.validateInput(ctx, input); err != nil {
		return domain.Request{}, err
	}

	now := time.Now().UTC()
	req := domain.Request{
		ID:                uuid.New().String(),
		Code:              newRequestCode(),
		OriginWarehouseID: input.OriginWarehouseID,
		RequesterID:       actor.ID,
		Priority:          input.Priority,
		Status:            domain.RequestSubmitted,
		SubmittedAt:       now,
	}

	var notifications []domain.TransferNotification
	anyTransferable := false
	anyUnresolvable := false

	for _, lineInput := range input.Lines {
		line := domain.RequestLine{
			ID:           uuid.New().String(),
			RequestID:    req.ID,
			ItemID:       lineInput.ItemID,
			RequestedQty: lineInput.RequestedQty,
		}

		outcome, err := s.resolver.ResolveLine(ctx, line, req.OriginWarehouseID)
		if err != nil {
			s.logger.Error("Falha ao resolver suficiência da linha.", err)
			return domain.Request{}, apperror.NewInternalError("Falha interna ao resolver suficiência.", err)
		}
		line.Outcome = outcome.Kind
		req.Lines = append(req.Lines, line)

		switch outcome.Kind {
		case domain.OutcomeTransferable:
			anyTransferable = true
			notification, err := s.buildNotification(ctx, req, line, outcome, now)
			if err != nil {
				return domain.Request{}, err
			}
			notifications = append(notifications, notification)

		case domain.OutcomeUnresolvable:
			anyUnresolvable = true
		}
	}

	// Agregação dos vereditos por linha no status da Requisição.
	switch {
	case anyUnresolvable:
		req.Status = domain.RequestRejected
		req.ResolvedAt = &now
		// Déficit que nenhum armazém cobre sozinho: nada a notificar, a
		// requisição nasce rejeitada por estoque insuficiente no sistema.
		notifications = nil
	case anyTransferable:
		req.Status = domain.RequestPendingTransfer
	case s.policy.AutoApprove(req):
		req.Status = domain.RequestApproved
	default:
		// Acima do limite de auto-aprovação: aguarda o gate manual.
		req.Status = domain.RequestSubmitted
	}

	created, err := s.repo.Create(ctx, req, notifications)
	if err != nil {
		s.logger.Error("Falha ao criar requisição no repositório.", err)
		return domain.Request{}, err
	}

	s.emit(ctx, "request", created.ID, "submit", actor.ID, "", string(created.Status))
	for _, n := range notifications {
		s.emit(ctx, "transfer_notification", n.ID, "create", actor.ID, "", string(n.Status))
		body := fmt.Sprintf("Transferência de %d un. do item %s exige aprovação (requisição %s).", n.RequiredQty, n.ItemID, created.Code)
		if err := s.notifier.ApprovalNeeded(ctx, n.SourceWarehouseID, n.ID, body); err != nil {
			s.logger.Warn("Falha ao notificar revisores da origem.", map[string]interface{}{"notification_id": n.ID})
		}
	}
	if created.Status == domain.RequestRejected {
		_ = s.notifier.RequestResolved(ctx, created.RequesterID, created.ID,
			fmt.Sprintf("Requisição %s rejeitada: estoque insuficiente no sistema inteiro.", created.Code))
	}

	s.logger.Info("Requisição submetida com sucesso.", map[string]interface{}{
		"id": created.ID, "code": created.Code, "status": created.Status,
	})
	return created, nil
}

// UpdateStatus aplica uma transição manual de status (e.g., o gate de
// aprovação de requisições, por manager/admin). A entrada em fulfilled passa
// pelo Stock Ledger, que debita as linhas locais e grava o status na mesma
// transação.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, requestID string, newStatus domain.RequestStatus) (domain.Request, error) {
	s.logger.Debug("Iniciando transição manual de requisição no serviço.", map[string]interface{}{
		"request_id": requestID, "new_status": newStatus, "actor_id": actor.ID,
	})

	// Cancelamento tem operação própria: política de dono e cancelamento em
	// cascata das notificações ainda pendentes.
	if newStatus == domain.RequestCancelled {
		return s.Cancel(ctx, actor, requestID)
	}

	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return domain.Request{}, err
	}

	if !s.policy.CanResolve(actor, policy.ActionApproveRequest, policy.Scope{WarehouseID: req.OriginWarehouseID, OwnerID: req.RequesterID}) {
		return domain.Request{}, apperror.NewAuthorizationError("Apenas managers ou administradores transicionam requisições.")
	}

	if !req.Status.CanTransition(newStatus) {
		return domain.Request{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("Requisição %s não pode ir de '%s' para '%s'.", req.Code, req.Status, newStatus))
	}

	oldStatus := req.Status

	var updated domain.Request
	if newStatus == domain.RequestFulfilled {
		updated, err = s.ledger.FulfillRequest(ctx, requestID)
	} else {
		updated, err = s.repo.UpdateStatus(ctx, requestID, oldStatus, newStatus)
	}
	if err != nil {
		return domain.Request{}, err
	}

	s.emit(ctx, "request", requestID, "update-status", actor.ID, string(oldStatus), string(updated.Status))
	if updated.Status == domain.RequestFulfilled {
		_ = s.notifier.RequestResolved(ctx, updated.RequesterID, updated.ID,
			fmt.Sprintf("Requisição %s atendida.", updated.Code))
	}

	return updated, nil
}

// Cancel cancela a Requisição do ator (ou qualquer uma, para manager/admin),
// cascateando o cancelamento às notificações ainda pendentes.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, requestID string) (domain.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return domain.Request{}, err
	}

	if !s.policy.CanResolve(actor, policy.ActionCancelRequest, policy.Scope{OwnerID: req.RequesterID}) {
		return domain.Request{}, apperror.NewAuthorizationError("Você só pode cancelar as próprias requisições.")
	}

	oldStatus := req.Status
	cancelled, err := s.repo.Cancel(ctx, requestID)
	if err != nil {
		return domain.Request{}, err
	}

	s.emit(ctx, "request", requestID, "cancel", actor.ID, string(oldStatus), string(cancelled.Status))
	return cancelled, nil
}

// GetByID busca uma Requisição visível ao ator.
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, requestID string) (domain.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return domain.Request{}, err
	}

	if !s.policy.CanResolve(actor, policy.ActionViewRequest, policy.Scope{OwnerID: req.RequesterID}) {
		return domain.Request{}, apperror.NewAuthorizationError("Você só pode ver as próprias requisições.")
	}
	return req, nil
}

// ListForActor lista Requisições segundo o filtro. Solicitantes e operadores
// enxergam apenas as próprias; managers e administradores enxergam todas.
func (s *Service) ListForActor(ctx context.Context, actor domain.Actor, filter domain.RequestFilter) ([]domain.Request, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager {
		filter.RequesterID = actor.ID
	}
	return s.repo.FindAll(ctx, filter)
}

// validateInput checa forma e referências do payload antes de qualquer escrita.
func (s *Service) validateInput(ctx context.Context, input domain.SubmitRequestInput) error {
	if len(input.Lines) == 0 {
		return apperror.NewValidationError("A requisição deve ter pelo menos uma linha.")
	}
	if !domain.ValidPriority(input.Priority) {
		return apperror.NewValidationError("Prioridade deve ser 'urgent', 'high' ou 'normal'.")
	}
	for _, line := range input.Lines {
		if line.RequestedQty <= 0 {
			return apperror.NewValidationError("A quantidade requisitada deve ser maior que zero.")
		}
	}

	warehouse, err := s.warehouse.GetWarehouseByID(ctx, input.OriginWarehouseID)
	if err != nil {
		return err
	}
	if !warehouse.IsActive {
		return apperror.NewValidationError(fmt.Sprintf("O armazém de destino %s está inativo.", warehouse.Code))
	}

	for _, line := range input.Lines {
		item, err := s.catalog.FindByID(ctx, line.ItemID)
		if err != nil {
			return err
		}
		if !item.IsActive {
			return apperror.NewValidationError(fmt.Sprintf("O item %s está inativo.", item.SKU))
		}
	}
	return nil
}

// buildNotification materializa um TransferNeed em notificação pendente.
// Sem operador elegível na origem, a notificação nasce escalonada ao
// administrador em vez de ser descartada silenciosamente.
func (s *Service) buildNotification(ctx context.Context, req domain.Request, line domain.RequestLine, outcome sufficiency.Outcome, now time.Time) (domain.TransferNotification, error) {
	operators, err := s.warehouse.ListOperators(ctx, outcome.SourceWarehouseID)
	if err != nil {
		return domain.TransferNotification{}, err
	}

	n := domain.TransferNotification{
		ID:                   uuid.New().String(),
		RequestID:            req.ID,
		RequestLineID:        line.ID,
		ItemID:               line.ItemID,
		SourceWarehouseID:    outcome.SourceWarehouseID,
		RequiredQty:          outcome.ShortfallQty,
		AvailableQtyAtSource: outcome.AvailableQtyAtSource,
		Status:               domain.NotificationPending,
		Escalated:            len(operators) == 0,
		CreatedAt:            now,
	}
	if n.Escalated {
		n.Notes = "Sem operador designado na origem; escalonada ao administrador."
		s.logger.Warn("Notificação escalonada: origem sem operador designado.", map[string]interface{}{
			"source_warehouse_id": outcome.SourceWarehouseID, "request_id": req.ID,
		})
	}
	return n, nil
}

func (s *Service) emit(ctx context.Context, entityType, entityID, action, actorID, oldStatus, newStatus string) {
	_ = s.sink.Emit(ctx, domain.Event{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		Timestamp:  time.Now().UTC(),
	})
}

// newRequestCode gera um código legível e único para uma Requisição.
func newRequestCode() string {
	return "REQ-" + strings.ToUpper(uuid.New().String()[:8])
}
