package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/middleware"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	CheckIn(ctx context.Context, actor domain.Actor, checkIn domain.CheckInRequest) (domain.Inventory, error)
	GetOnHand(ctx context.Context, itemID, warehouseID string) (domain.Inventory, error)
	ListHoldings(ctx context.Context, itemID string) ([]domain.Inventory, error)
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
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

// CheckInHandler lida com POST /v1/stock/check-in.
// @Summary Credita estoque recém-chegado em um armazém
// @Description Entrada externa de estoque: cria a linha de inventário se não existir, soma a quantidade se existir. Operação restrita a operadores do armazém.
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param checkin body domain.CheckInRequest true "Item, armazém e quantidade (positiva)"
// @Success 200 {object} domain.Inventory "Saldo resultante"
// @Failure 400 {object} domain.ErrorResponse "Quantidade não positiva ou item/armazém inativo"
// @Failure 403 {object} domain.ErrorResponse "Ator não é operador do armazém"
// @Router /stock/check-in [post]
func (h *Handler) CheckInHandler(w http.ResponseWriter, r *http.Request) {
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

	var checkIn domain.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&checkIn); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	inv, err := h.Service.CheckIn(ctx, actor, checkIn)
	h.handleServiceResponse(w, r, inv, err, http.StatusOK)
}

// OnHandHandler lida com GET /v1/stock/on-hand?item_id=&warehouse_id=.
// Sem warehouse_id, lista os armazéns ativos com saldo positivo do item.
// @Summary Consulta o saldo de um item
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param item_id query string true "ID do item"
// @Param warehouse_id query string false "ID do armazém (ausente: lista todos com saldo)"
// @Success 200 {object} domain.Inventory "Saldo (zero quando não há linha)"
// @Failure 400 {object} domain.ErrorResponse "item_id ausente"
// @Router /stock/on-hand [get]
func (h *Handler) OnHandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()
	itemID := q.Get("item_id")
	if itemID == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Parâmetro item_id é obrigatório."), http.StatusOK)
		return
	}

	if warehouseID := q.Get("warehouse_id"); warehouseID != "" {
		inv, err := h.Service.GetOnHand(ctx, itemID, warehouseID)
		h.handleServiceResponse(w, r, inv, err, http.StatusOK)
		return
	}

	holdings, err := h.Service.ListHoldings(ctx, itemID)
	h.handleServiceResponse(w, r, holdings, err, http.StatusOK)
}
