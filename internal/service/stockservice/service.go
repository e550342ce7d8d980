package stockservice

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/events"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/service/policy"
)

// StockLedger define o contrato que o serviço espera do Stock Ledger.
type StockLedger interface {
	GetOnHand(ctx context.Context, itemID, warehouseID string) (domain.Inventory, error)
	ListHoldings(ctx context.Context, itemID string) ([]domain.Inventory, error)
	CheckIn(ctx context.Context, checkIn domain.CheckInRequest) (domain.Inventory, error)
}

// CatalogReader são as consultas somente-leitura aos dados mestre.
type CatalogReader interface {
	FindByID(ctx context.Context, id string) (domain.Item, error)
}

// WarehouseReader são as consultas somente-leitura de armazéns.
type WarehouseReader interface {
	GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error)
}

// Service expõe as consultas de saldo e a entrada de estoque por check-in.
// Toda mutação de on_hand_qty acontece no Stock Ledger; aqui só validamos
// e autorizamos antes de delegar.
type Service struct {
	ledger    StockLedger
	catalog   CatalogReader
	warehouse WarehouseReader
	policy    policy.Policy
	sink      events.Sink
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(ledger StockLedger, catalog CatalogReader, warehouse WarehouseReader, pol policy.Policy, sink events.Sink, logger logger.Logger) *Service {
	return &Service{
		ledger:    ledger,
		catalog:   catalog,
		warehouse: warehouse,
		policy:    pol,
		sink:      sink,
		logger:    logger,
	}
}

// CheckIn credita estoque recém-chegado no armazém do operador.
func (s *Service) CheckIn(ctx context.Context, actor domain.Actor, checkIn domain.CheckInRequest) (domain.Inventory, error) {
	s.logger.Debug("Iniciando check-in de estoque no serviço.", map[string]interface{}{
		"item_id": checkIn.ItemID, "warehouse_id": checkIn.WarehouseID, "qty": checkIn.Qty, "actor_id": actor.ID,
	})

	if !s.policy.CanResolve(actor, policy.ActionCheckInStock, policy.Scope{WarehouseID: checkIn.WarehouseID}) {
		return domain.Inventory{}, apperror.NewAuthorizationError("Apenas operadores do armazém fazem check-in de estoque.")
	}
	if checkIn.Qty <= 0 {
		return domain.Inventory{}, apperror.NewValidationError("A quantidade do check-in deve ser maior que zero.")
	}

	item, err := s.catalog.FindByID(ctx, checkIn.ItemID)
	if err != nil {
		return domain.Inventory{}, err
	}
	if !item.IsActive {
		return domain.Inventory{}, apperror.NewValidationError(fmt.Sprintf("O item %s está inativo.", item.SKU))
	}

	warehouse, err := s.warehouse.GetWarehouseByID(ctx, checkIn.WarehouseID)
	if err != nil {
		return domain.Inventory{}, err
	}
	if !warehouse.IsActive {
		return domain.Inventory{}, apperror.NewValidationError(fmt.Sprintf("O armazém %s está inativo.", warehouse.Code))
	}

	inv, err := s.ledger.CheckIn(ctx, checkIn)
	if err != nil {
		return domain.Inventory{}, err
	}

	_ = s.sink.Emit(ctx, domain.Event{
		EntityType: "inventory",
		EntityID:   inv.ID,
		Action:     "check-in",
		ActorID:    actor.ID,
		Timestamp:  time.Now().UTC(),
	})

	s.logger.Info("Check-in de estoque concluído.", map[string]interface{}{
		"item_id": checkIn.ItemID, "warehouse_id": checkIn.WarehouseID, "on_hand_qty": inv.OnHandQty,
	})
	return inv, nil
}

// GetOnHand retorna o saldo de um item em um armazém (zero quando não há linha).
func (s *Service) GetOnHand(ctx context.Context, itemID, warehouseID string) (domain.Inventory, error) {
	return s.ledger.GetOnHand(ctx, itemID, warehouseID)
}

// ListHoldings lista os armazéns ativos com saldo positivo do item, na mesma
// ordem determinística usada pelo Resolvedor de Suficiência.
func (s *Service) ListHoldings(ctx context.Context, itemID string) ([]domain.Inventory, error) {
	return s.ledger.ListHoldings(ctx, itemID)
}
