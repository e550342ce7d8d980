package transferservice

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/events"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/notify"
	"stockflow/internal/repository/inventoryrepo"
	"stockflow/internal/repository/transferrepo"
	"stockflow/internal/service/policy"
)

// TransferRepository define o contrato que o Gate de Notificações e o
// Executor de Transferências esperam da camada de Persistência.
type TransferRepository interface {
	FindNotificationByID(ctx context.Context, id string) (domain.TransferNotification, error)
	FindNotifications(ctx context.Context, filter domain.NotificationFilter) ([]domain.TransferNotification, error)
	Approve(ctx context.Context, notificationID, resolverID, notes string) (domain.Transfer, error)
	Reject(ctx context.Context, notificationID, resolverID, notes string) (transferrepo.RejectResult, error)
	FindTransferByID(ctx context.Context, id string) (domain.Transfer, error)
	UpdateTransferStatus(ctx context.Context, id string, from, to domain.TransferStatus, courierInfo string) (domain.Transfer, error)
}

// Ledger é a fatia do Stock Ledger usada no recebimento: o único ponto do
// ciclo de vida de uma Transferência que muta on_hand_qty.
type Ledger interface {
	ReceiveTransfer(ctx context.Context, transferID string) (inventoryrepo.ReceiveResult, error)
}

// Resolution é o desfecho de uma decisão sobre uma notificação pendente.
// Transfer só é preenchida quando a decisão foi de aprovação.
type Resolution struct {
	Notification domain.TransferNotification
	Transfer     *domain.Transfer
}

// Service cobre o lado "transferência" do fluxo: decide notificações
// pendentes e conduz a Transferência resultante pelo seu grafo de estados.
type Service struct {
	repo     TransferRepository
	ledger   Ledger
	policy   policy.Policy
	sink     events.Sink
	notifier notify.Notifier
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Transferências.
func NewService(repo TransferRepository, ledger Ledger, pol policy.Policy, sink events.Sink, notifier notify.Notifier, logger logger.Logger) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		policy:   pol,
		sink:     sink,
		notifier: notifier,
		logger:   logger,
	}
}

// Resolve aplica a decisão do revisor sobre uma notificação pendente.
// Aprovar re-checa a quantidade viva na origem dentro da transação do
// repositório; se o snapshot envelheceu, o chamador recebe
// StaleSufficiencyError e a notificação permanece pendente.
func (s *Service) Resolve(ctx context.Context, actor domain.Actor, notificationID string, decision domain.NotificationDecision, notes string) (Resolution, error) {
	s.logger.Debug("Iniciando resolução de notificação no serviço.", map[string]interface{}{
		"notification_id": notificationID, "decision": decision, "actor_id": actor.ID,
	})

	n, err := s.repo.FindNotificationByID(ctx, notificationID)
	if err != nil {
		return Resolution{}, err
	}

	if !s.policy.CanResolve(actor, policy.ActionResolveNotification, policy.Scope{WarehouseID: n.SourceWarehouseID}) {
		return Resolution{}, apperror.NewAuthorizationError("Apenas operadores da origem, managers ou administradores resolvem notificações.")
	}
	// Escalonadas nasceram sem operador na origem; a decisão sobe um nível.
	if n.Escalated && actor.Role == domain.RoleOperator {
		return Resolution{}, apperror.NewAuthorizationError("Notificações escalonadas são resolvidas por manager ou administrador.")
	}

	switch decision {
	case domain.DecisionApprove:
		transfer, err := s.repo.Approve(ctx, notificationID, actor.ID, notes)
		if err != nil {
			return Resolution{}, err
		}
		s.emit(ctx, "transfer_notification", notificationID, "approve", actor.ID, string(domain.NotificationPending), string(domain.NotificationApproved))
		s.emit(ctx, "transfer", transfer.ID, "create", actor.ID, "", string(transfer.Status))

		body := fmt.Sprintf("Transferência %s criada; prepare o envio para o armazém %s.", transfer.Code, transfer.DestinationWarehouseID)
		if err := s.notifier.ApprovalNeeded(ctx, transfer.SourceWarehouseID, transfer.ID, body); err != nil {
			s.logger.Warn("Falha ao notificar origem sobre transferência criada.", map[string]interface{}{"transfer_id": transfer.ID})
		}

		n, err = s.repo.FindNotificationByID(ctx, notificationID)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Notification: n, Transfer: &transfer}, nil

	case domain.DecisionReject:
		result, err := s.repo.Reject(ctx, notificationID, actor.ID, notes)
		if err != nil {
			return Resolution{}, err
		}
		s.emit(ctx, "transfer_notification", notificationID, "reject", actor.ID, string(domain.NotificationPending), string(domain.NotificationRejected))

		if result.RequestDemoted {
			s.emit(ctx, "request", result.RequestID, "reject", actor.ID, string(domain.RequestPendingTransfer), string(domain.RequestRejected))
			_ = s.notifier.RequestResolved(ctx, result.RequesterID, result.RequestID,
				"Requisição rejeitada: nenhuma transferência restante pode satisfazê-la.")
		}
		return Resolution{Notification: result.Notification}, nil

	default:
		return Resolution{}, apperror.NewValidationError("Decisão deve ser 'approve' ou 'reject'.")
	}
}

// MarkInTransit registra a saída física da carga da origem. Transição de
// metadados; o ledger só é tocado no recebimento.
func (s *Service) MarkInTransit(ctx context.Context, actor domain.Actor, transferID, courierInfo string) (domain.Transfer, error) {
	t, err := s.repo.FindTransferByID(ctx, transferID)
	if err != nil {
		return domain.Transfer{}, err
	}

	if !s.policy.CanResolve(actor, policy.ActionMarkInTransit, policy.Scope{WarehouseID: t.SourceWarehouseID}) {
		return domain.Transfer{}, apperror.NewAuthorizationError("Apenas operadores da origem despacham transferências.")
	}
	if !t.Status.CanTransition(domain.TransferInTransit) {
		return domain.Transfer{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("Transferência %s está '%s'; só transferências iniciadas podem ser despachadas.", t.Code, t.Status))
	}

	updated, err := s.repo.UpdateTransferStatus(ctx, transferID, t.Status, domain.TransferInTransit, courierInfo)
	if err != nil {
		return domain.Transfer{}, err
	}

	s.emit(ctx, "transfer", transferID, "in-transit", actor.ID, string(t.Status), string(updated.Status))
	return updated, nil
}

// Receive confirma a chegada da carga no destino. É a única transição com
// efeito no ledger: débito na origem, crédito no destino, flip da
// transferência e da notificação, e liquidação da requisição pai quando esta
// era a última transferência faltante — tudo em uma transação do Stock Ledger.
func (s *Service) Receive(ctx context.Context, actor domain.Actor, transferID string) (domain.Transfer, error) {
	s.logger.Debug("Iniciando recebimento de transferência no serviço.", map[string]interface{}{
		"transfer_id": transferID, "actor_id": actor.ID,
	})

	t, err := s.repo.FindTransferByID(ctx, transferID)
	if err != nil {
		return domain.Transfer{}, err
	}

	if !s.policy.CanResolve(actor, policy.ActionMarkReceived, policy.Scope{WarehouseID: t.DestinationWarehouseID}) {
		return domain.Transfer{}, apperror.NewAuthorizationError("Apenas operadores do destino recebem transferências.")
	}

	result, err := s.ledger.ReceiveTransfer(ctx, transferID)
	if err != nil {
		return domain.Transfer{}, err
	}

	s.emit(ctx, "transfer", transferID, "receive", actor.ID, string(domain.TransferInTransit), string(result.Transfer.Status))
	if result.NotificationID != "" {
		s.emit(ctx, "transfer_notification", result.NotificationID, "transferred", actor.ID,
			string(domain.NotificationApproved), string(domain.NotificationTransferred))
	}
	if result.RequestFulfilled {
		s.emit(ctx, "request", result.RequestID, "fulfill", actor.ID,
			string(domain.RequestPendingTransfer), string(domain.RequestFulfilled))
		_ = s.notifier.RequestResolved(ctx, result.RequesterID, result.RequestID,
			"Requisição atendida: todas as transferências chegaram.")
	}

	return result.Transfer, nil
}

// Dispose encerra uma transferência em trânsito cuja carga se perdeu ou foi
// danificada. Sem efeito no ledger: o débito na origem só aconteceria no
// recebimento, então não há o que estornar.
func (s *Service) Dispose(ctx context.Context, actor domain.Actor, transferID, notes string) (domain.Transfer, error) {
	t, err := s.repo.FindTransferByID(ctx, transferID)
	if err != nil {
		return domain.Transfer{}, err
	}

	if !s.policy.CanResolve(actor, policy.ActionDisposeTransfer, policy.Scope{WarehouseID: t.DestinationWarehouseID}) {
		return domain.Transfer{}, apperror.NewAuthorizationError("Você não pode descartar esta transferência.")
	}
	if !t.Status.CanTransition(domain.TransferDisposed) {
		return domain.Transfer{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("Transferência %s está '%s'; só transferências em trânsito podem ser descartadas.", t.Code, t.Status))
	}

	updated, err := s.repo.UpdateTransferStatus(ctx, transferID, t.Status, domain.TransferDisposed, "")
	if err != nil {
		return domain.Transfer{}, err
	}

	s.logger.Warn("Transferência descartada.", map[string]interface{}{
		"transfer_id": transferID, "code": t.Code, "notes": notes,
	})
	s.emit(ctx, "transfer", transferID, "dispose", actor.ID, string(t.Status), string(updated.Status))
	return updated, nil
}

// Cancel desfaz uma transferência ainda não despachada (e.g., a requisição
// pai foi cancelada antes da saída da carga). Sem efeito no ledger.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, transferID, notes string) (domain.Transfer, error) {
	t, err := s.repo.FindTransferByID(ctx, transferID)
	if err != nil {
		return domain.Transfer{}, err
	}

	if !s.policy.CanResolve(actor, policy.ActionMarkInTransit, policy.Scope{WarehouseID: t.SourceWarehouseID}) {
		return domain.Transfer{}, apperror.NewAuthorizationError("Apenas operadores da origem cancelam transferências.")
	}
	if !t.Status.CanTransition(domain.TransferCancelled) {
		return domain.Transfer{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("Transferência %s está '%s'; só transferências iniciadas podem ser canceladas.", t.Code, t.Status))
	}

	updated, err := s.repo.UpdateTransferStatus(ctx, transferID, t.Status, domain.TransferCancelled, "")
	if err != nil {
		return domain.Transfer{}, err
	}

	s.logger.Info("Transferência cancelada.", map[string]interface{}{
		"transfer_id": transferID, "code": t.Code, "notes": notes,
	})
	s.emit(ctx, "transfer", transferID, "cancel", actor.ID, string(t.Status), string(updated.Status))
	return updated, nil
}

// GetTransfer busca uma Transferência pelo ID, com suas linhas.
func (s *Service) GetTransfer(ctx context.Context, transferID string) (domain.Transfer, error) {
	return s.repo.FindTransferByID(ctx, transferID)
}

// ListNotifications lista notificações visíveis ao ator. Operadores só
// enxergam as dos próprios armazéns; o filtro de origem é validado (ou
// preenchido, quando o operador tem um único armazém) contra as designações.
func (s *Service) ListNotifications(ctx context.Context, actor domain.Actor, filter domain.NotificationFilter) ([]domain.TransferNotification, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		// Sem restrição de escopo.
	case domain.RoleOperator:
		if filter.SourceWarehouseID == "" {
			if len(actor.WarehouseAssignments) != 1 {
				return nil, apperror.NewValidationError("Informe o armazém de origem para listar notificações.")
			}
			filter.SourceWarehouseID = actor.WarehouseAssignments[0]
		} else if !actor.AssignedTo(filter.SourceWarehouseID) {
			return nil, apperror.NewAuthorizationError("Você não é operador deste armazém.")
		}
	default:
		return nil, apperror.NewAuthorizationError("Solicitantes não enxergam a fila de notificações.")
	}

	return s.repo.FindNotifications(ctx, filter)
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
