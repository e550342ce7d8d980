package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// WarehouseService define o contrato que o Handler espera da camada de Serviço.
type WarehouseService interface {
	CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error)
	GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error)
	GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error)
	UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error)
	DeactivateWarehouse(ctx context.Context, id string) error
	AssignOperator(ctx context.Context, warehouseID, userID string) error
	ListOperators(ctx context.Context, warehouseID string) ([]domain.WarehouseOperator, error)
}

// AssignOperatorRequest é o payload de designação de operador.
type AssignOperatorRequest struct {
	UserID string `json:"user_id"`
}

// Handler agrupa todos os métodos de Handler de armazéns.
type Handler struct {
	Service WarehouseService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc WarehouseService, log logger.Logger) *Handler {
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

// WarehousesHandler lida com POST /v1/warehouses (criar) e GET /v1/warehouses (listar).
// @Summary Cria ou lista armazéns
// @Tags warehouses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param warehouse body domain.Warehouse true "Dados do armazém (POST)"
// @Success 201 {object} domain.Warehouse "Armazém criado"
// @Failure 400 {object} domain.ErrorResponse "Código/nome ausentes"
// @Router /warehouses [post]
func (h *Handler) WarehousesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		var warehouse domain.Warehouse
		if err := json.NewDecoder(r.Body).Decode(&warehouse); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
			return
		}
		created, err := h.Service.CreateWarehouse(ctx, warehouse)
		h.handleServiceResponse(w, r, created, err, http.StatusCreated)

	case http.MethodGet:
		warehouses, err := h.Service.GetAllWarehouses(ctx)
		h.handleServiceResponse(w, r, warehouses, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// WarehouseByIDHandler lida com /v1/warehouses/{id} e /v1/warehouses/{id}/operators.
// GET busca, PUT atualiza, DELETE desativa; o sufixo /operators designa (POST)
// ou lista (GET) operadores do armazém.
// @Summary Busca, atualiza, desativa um armazém ou gerencia seus operadores
// @Tags warehouses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do armazém"
// @Success 200 {object} domain.Warehouse "Armazém"
// @Failure 404 {object} domain.ErrorResponse "Armazém não encontrado"
// @Router /warehouses/{id} [get]
func (h *Handler) WarehouseByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	path := strings.TrimPrefix(r.URL.Path, "/v1/warehouses/")

	if id, ok := strings.CutSuffix(path, "/operators"); ok {
		h.operators(w, r, id)
		return
	}

	id := path
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID do armazém ausente ou malformado."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		warehouse, err := h.Service.GetWarehouseByID(ctx, id)
		h.handleServiceResponse(w, r, warehouse, err, http.StatusOK)

	case http.MethodPut:
		var warehouse domain.Warehouse
		if err := json.NewDecoder(r.Body).Decode(&warehouse); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
			return
		}
		warehouse.ID = id
		updated, err := h.Service.UpdateWarehouse(ctx, warehouse)
		h.handleServiceResponse(w, r, updated, err, http.StatusOK)

	case http.MethodDelete:
		err := h.Service.DeactivateWarehouse(ctx, id)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) operators(w http.ResponseWriter, r *http.Request, warehouseID string) {
	ctx := r.Context()

	if warehouseID == "" || strings.Contains(warehouseID, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID do armazém ausente ou malformado."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body AssignOperatorRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
			return
		}
		err := h.Service.AssignOperator(ctx, warehouseID, body.UserID)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)

	case http.MethodGet:
		operators, err := h.Service.ListOperators(ctx, warehouseID)
		h.handleServiceResponse(w, r, operators, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
