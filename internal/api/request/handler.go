package request

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
)

// RequestService define o contrato que o Handler espera da camada de Serviço.
type RequestService interface {
	Submit(ctx context.Context, actor domain.Actor, input domain.SubmitRequestInput) (domain.Request, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, requestID string, newStatus domain.RequestStatus) (domain.Request, error)
	Cancel(ctx context.Context, actor domain.Actor, requestID string) (domain.Request, error)
	GetByID(ctx context.Context, actor domain.Actor, requestID string) (domain.Request, error)
	ListForActor(ctx context.Context, actor domain.Actor, filter domain.RequestFilter) ([]domain.Request, error)
}

// UpdateStatusRequest é o payload de transição manual de status.
type UpdateStatusRequest struct {
	Status domain.RequestStatus `json:"status"`
}

// Handler agrupa todos os métodos de Handler de requisições.
type Handler struct {
	Service RequestService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc RequestService, log logger.Logger) *Handler {
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

// SubmitRequestHandler lida com POST /v1/requests e GET /v1/requests (listagem).
// @Summary Submete uma nova requisição de itens
// @Description Valida as linhas, resolve a suficiência de cada uma e retorna a requisição com seu status inicial (submitted, approved, pending-transfer ou rejected).
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.SubmitRequestInput true "Armazém de destino, prioridade e linhas"
// @Success 201 {object} domain.Request "Requisição criada"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido (linha sem quantidade positiva, item/armazém inativo)"
// @Failure 401 {object} domain.ErrorResponse "Token ausente ou inválido"
// @Router /requests [post]
func (h *Handler) SubmitRequestHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		// segue abaixo
	case http.MethodGet:
		h.listRequests(w, r)
		return
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Ator não identificado."), http.StatusCreated)
		return
	}

	var input domain.SubmitRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	req, err := h.Service.Submit(ctx, actor, input)
	h.handleServiceResponse(w, r, req, err, http.StatusCreated)
}

// listRequests lida com GET /v1/requests.
// @Summary Lista requisições visíveis ao ator
// @Description Solicitantes e operadores enxergam só as próprias; managers e administradores, todas. Filtros: status, priority, origin_warehouse_id, page, limit.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Request "Requisições encontradas"
// @Failure 401 {object} domain.ErrorResponse "Token ausente ou inválido"
// @Router /requests [get]
func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Ator não identificado."), http.StatusOK)
		return
	}

	q := r.URL.Query()
	filter := domain.RequestFilter{
		Status:            domain.RequestStatus(q.Get("status")),
		Priority:          domain.RequestPriority(q.Get("priority")),
		OriginWarehouseID: q.Get("origin_warehouse_id"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	requests, err := h.Service.ListForActor(ctx, actor, filter)
	h.handleServiceResponse(w, r, requests, err, http.StatusOK)
}

// RequestByIDHandler lida com GET/PATCH/DELETE /v1/requests/{id}.
// GET busca, PATCH transiciona o status (gate manual) e DELETE cancela.
// @Summary Busca, transiciona ou cancela uma requisição
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da requisição"
// @Success 200 {object} domain.Request "Requisição"
// @Failure 403 {object} domain.ErrorResponse "Ator sem permissão sobre esta requisição"
// @Failure 404 {object} domain.ErrorResponse "Requisição não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Transição de status inválida"
// @Router /requests/{id} [get]
func (h *Handler) RequestByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Ator não identificado."), http.StatusOK)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/requests/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID da requisição ausente ou malformado."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		req, err := h.Service.GetByID(ctx, actor, id)
		h.handleServiceResponse(w, r, req, err, http.StatusOK)

	case http.MethodPatch:
		var body UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
			return
		}
		req, err := h.Service.UpdateStatus(ctx, actor, id, body.Status)
		h.handleServiceResponse(w, r, req, err, http.StatusOK)

	case http.MethodDelete:
		req, err := h.Service.Cancel(ctx, actor, id)
		h.handleServiceResponse(w, r, req, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
