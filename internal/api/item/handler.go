package item

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
)

// ItemService define o contrato que o Handler espera da camada de Serviço.
type ItemService interface {
	CreateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	GetItemByID(ctx context.Context, id string) (domain.Item, error)
	GetAllItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	DeactivateItem(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler do catálogo de itens.
type Handler struct {
	Service ItemService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ItemService, log logger.Logger) *Handler {
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

// ItemsHandler lida com POST /v1/items (criar) e GET /v1/items (listar).
// @Summary Cria ou lista itens do catálogo
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body domain.Item true "Dados do item (POST)"
// @Success 201 {object} domain.Item "Item criado"
// @Failure 400 {object} domain.ErrorResponse "SKU/nome ausentes ou valor negativo"
// @Router /items [post]
func (h *Handler) ItemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		var item domain.Item
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
			return
		}
		created, err := h.Service.CreateItem(ctx, item)
		h.handleServiceResponse(w, r, created, err, http.StatusCreated)

	case http.MethodGet:
		q := r.URL.Query()
		filter := domain.ItemFilter{
			Name:       q.Get("name"),
			SKU:        q.Get("sku"),
			ActiveOnly: q.Get("active_only") == "true",
		}
		filter.Page, _ = strconv.Atoi(q.Get("page"))
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))

		items, err := h.Service.GetAllItems(ctx, filter)
		h.handleServiceResponse(w, r, items, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemByIDHandler lida com GET/PUT/DELETE /v1/items/{id}.
// DELETE desativa (soft delete): o histórico de requisições permanece.
// @Summary Busca, atualiza ou desativa um item
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Success 200 {object} domain.Item "Item"
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id} [get]
func (h *Handler) ItemByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := strings.TrimPrefix(r.URL.Path, "/v1/items/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID do item ausente ou malformado."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := h.Service.GetItemByID(ctx, id)
		h.handleServiceResponse(w, r, item, err, http.StatusOK)

	case http.MethodPut:
		var item domain.Item
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
			return
		}
		item.ID = id
		updated, err := h.Service.UpdateItem(ctx, item)
		h.handleServiceResponse(w, r, updated, err, http.StatusOK)

	case http.MethodDelete:
		err := h.Service.DeactivateItem(ctx, id)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
