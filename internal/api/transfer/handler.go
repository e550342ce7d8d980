package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/middleware"
	"stockflow/internal/service/transferservice"
)

// TransferService define o contrato que o Handler espera da camada de Serviço.
type TransferService interface {
	Resolve(ctx context.Context, actor domain.Actor, notificationID string, decision domain.NotificationDecision, notes string) (transferservice.Resolution, error)
	ListNotifications(ctx context.Context, actor domain.Actor, filter domain.NotificationFilter) ([]domain.TransferNotification, error)
	MarkInTransit(ctx context.Context, actor domain.Actor, transferID, courierInfo string) (domain.Transfer, error)
	Receive(ctx context.Context, actor domain.Actor, transferID string) (domain.Transfer, error)
	Dispose(ctx context.Context, actor domain.Actor, transferID, notes string) (domain.Transfer, error)
	Cancel(ctx context.Context, actor domain.Actor, transferID, notes string) (domain.Transfer, error)
	GetTransfer(ctx context.Context, transferID string) (domain.Transfer, error)
}

// ResolveRequest é o payload da decisão sobre uma notificação pendente.
type ResolveRequest struct {
	Decision domain.NotificationDecision `json:"decision"`
	Notes    string                      `json:"notes"`
}

// TransitionRequest é o payload das transições de uma Transferência.
type TransitionRequest struct {
	Status      domain.TransferStatus `json:"status"`
	CourierInfo string                `json:"courier_info"`
	Notes       string                `json:"notes"`
}

// Handler agrupa os métodos de Handler de notificações e Transferências.
type Handler struct {
	Service TransferService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc TransferService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// ListNotificationsHandler lida com GET /v1/notifications.
// @Summary Lista notificações de transferência
// @Description Operadores só enxergam as dos próprios armazéns. Filtros: status, source_warehouse_id, page, limit.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TransferNotification "Notificações encontradas"
// @Failure 403 {object} domain.ErrorResponse "Ator sem acesso à fila"
// @Router /notifications [get]
func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Ator não identificado."), http.StatusOK)
		return
	}

	q := r.URL.Query()
	filter := domain.NotificationFilter{
		Status:            domain.NotificationStatus(q.Get("status")),
		SourceWarehouseID: q.Get("source_warehouse_id"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	notifications, err := h.Service.ListNotifications(ctx, actor, filter)
	h.handleServiceResponse(w, r, notifications, err, http.StatusOK)
}

// ResolveNotificationHandler lida com POST /v1/notifications/{id}/resolve.
// @Summary Aprova ou rejeita uma notificação pendente
// @Description Aprovar re-checa a quantidade viva na origem; se o snapshot envelheceu, retorna 409 STALE_SUFFICIENCY e a notificação permanece pendente.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da notificação"
// @Param resolution body ResolveRequest true "Decisão (approve/reject) e observações"
// @Success 200 {object} transferservice.Resolution "Desfecho da decisão (transferência criada, se aprovada)"
// @Failure 403 {object} domain.ErrorResponse "Ator não é revisor elegível"
// @Failure 409 {object} domain.ErrorResponse "Notificação já resolvida ou suficiência obsoleta"
// @Router /notifications/{id}/resolve [post]
func (h *Handler) ResolveNotificationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Ator não identificado."), http.StatusOK)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/notifications/")
	id := strings.TrimSuffix(path, "/resolve")
	if id == "" || id == path || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID da notificação ausente ou malformado."), http.StatusOK)
		return
	}

	var body ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	resolution, err := h.Service.Resolve(ctx, actor, id, body.Decision, body.Notes)
	h.handleServiceResponse(w, r, resolution, err, http.StatusOK)
}

// TransferByIDHandler lida com GET/PATCH /v1/transfers/{id}.
// PATCH conduz a Transferência pelo grafo: in-transit, received ou disposed.
// @Summary Busca ou transiciona uma Transferência
// @Description received debita a origem e credita o destino atomicamente; in-transit e disposed são transições de metadados, sem efeito no estoque.
// @Tags transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da transferência"
// @Success 200 {object} domain.Transfer "Transferência"
// @Failure 404 {object} domain.ErrorResponse "Transferência não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Transição inválida ou estoque insuficiente na origem"
// @Router /transfers/{id} [get]
func (h *Handler) TransferByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Ator não identificado."), http.StatusOK)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/transfers/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID da transferência ausente ou malformado."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := h.Service.GetTransfer(ctx, id)
		h.handleServiceResponse(w, r, t, err, http.StatusOK)

	case http.MethodPatch:
		var body TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
			return
		}

		var (
			t   domain.Transfer
			err error
		)
		switch body.Status {
		case domain.TransferInTransit:
			t, err = h.Service.MarkInTransit(ctx, actor, id, body.CourierInfo)
		case domain.TransferReceived:
			t, err = h.Service.Receive(ctx, actor, id)
		case domain.TransferDisposed:
			t, err = h.Service.Dispose(ctx, actor, id, body.Notes)
		case domain.TransferCancelled:
			t, err = h.Service.Cancel(ctx, actor, id, body.Notes)
		default:
			err = apperror.NewValidationError("Status deve ser 'in-transit', 'received', 'disposed' ou 'cancelled'.")
		}
		h.handleServiceResponse(w, r, t, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
