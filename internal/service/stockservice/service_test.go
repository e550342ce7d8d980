package stockservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/service/policy"
	"stockflow/internal/service/stockservice"
)

// MockStockLedger é uma implementação mock da interface StockLedger
type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) GetOnHand(ctx context.Context, itemID, warehouseID string) (domain.Inventory, error) {
	args := m.Called(ctx, itemID, warehouseID)
	return args.Get(0).(domain.Inventory), args.Error(1)
}

func (m *MockStockLedger) ListHoldings(ctx context.Context, itemID string) ([]domain.Inventory, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).([]domain.Inventory), args.Error(1)
}

func (m *MockStockLedger) CheckIn(ctx context.Context, checkIn domain.CheckInRequest) (domain.Inventory, error) {
	args := m.Called(ctx, checkIn)
	return args.Get(0).(domain.Inventory), args.Error(1)
}

// MockCatalogReader é uma implementação mock da interface CatalogReader
type MockCatalogReader struct {
	mock.Mock
}

func (m *MockCatalogReader) FindByID(ctx context.Context, id string) (domain.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Item), args.Error(1)
}

// MockWarehouseReader é uma implementação mock da interface WarehouseReader
type MockWarehouseReader struct {
	mock.Mock
}

func (m *MockWarehouseReader) GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Warehouse), args.Error(1)
}

type nopSink struct{}

func (nopSink) Emit(ctx context.Context, event domain.Event) error { return nil }

func newService(ledger *MockStockLedger, catalog *MockCatalogReader, warehouse *MockWarehouseReader) *stockservice.Service {
	return stockservice.NewService(ledger, catalog, warehouse, policy.New(10), nopSink{}, logger.NewLogger("debug"))
}

// TestCheckIn_Success: operador do armazém credita estoque recém-chegado.
func TestCheckIn_Success(t *testing.T) {
	mockLedger := new(MockStockLedger)
	mockCatalog := new(MockCatalogReader)
	mockWarehouse := new(MockWarehouseReader)
	svc := newService(mockLedger, mockCatalog, mockWarehouse)

	itemID := uuid.New().String()
	actor := domain.Actor{ID: "op1", Role: domain.RoleOperator, WarehouseAssignments: []string{"wh-a"}}
	checkIn := domain.CheckInRequest{ItemID: itemID, WarehouseID: "wh-a", Qty: 25}

	mockCatalog.On("FindByID", mock.Anything, itemID).
		Return(domain.Item{ID: itemID, SKU: "SKU-1", IsActive: true}, nil)
	mockWarehouse.On("GetWarehouseByID", mock.Anything, "wh-a").
		Return(domain.Warehouse{ID: "wh-a", Code: "WH-A", IsActive: true}, nil)
	mockLedger.On("CheckIn", mock.Anything, checkIn).
		Return(domain.Inventory{ItemID: itemID, WarehouseID: "wh-a", OnHandQty: 25, Version: 1}, nil)

	result, err := svc.CheckIn(context.Background(), actor, checkIn)

	assert.NoError(t, err)
	assert.Equal(t, 25, result.OnHandQty)
	mockLedger.AssertExpectations(t)
}

// TestCheckIn_Fail_NonPositiveQty: check-in de quantidade não positiva é recusado.
func TestCheckIn_Fail_NonPositiveQty(t *testing.T) {
	mockLedger := new(MockStockLedger)
	svc := newService(mockLedger, new(MockCatalogReader), new(MockWarehouseReader))

	actor := domain.Actor{ID: "op1", Role: domain.RoleOperator, WarehouseAssignments: []string{"wh-a"}}
	_, err := svc.CheckIn(context.Background(), actor, domain.CheckInRequest{ItemID: "i", WarehouseID: "wh-a", Qty: 0})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockLedger.AssertNotCalled(t, "CheckIn", mock.Anything, mock.Anything)
}

// TestCheckIn_Fail_OperatorOfAnotherWarehouse: o escopo do operador é
// verificado antes de qualquer leitura ou escrita.
func TestCheckIn_Fail_OperatorOfAnotherWarehouse(t *testing.T) {
	mockLedger := new(MockStockLedger)
	svc := newService(mockLedger, new(MockCatalogReader), new(MockWarehouseReader))

	actor := domain.Actor{ID: "op1", Role: domain.RoleOperator, WarehouseAssignments: []string{"wh-a"}}
	_, err := svc.CheckIn(context.Background(), actor, domain.CheckInRequest{ItemID: "i", WarehouseID: "wh-b", Qty: 5})

	assert.Error(t, err)
	assert.IsType(t, &apperror.AuthorizationError{}, err)
	mockLedger.AssertNotCalled(t, "CheckIn", mock.Anything, mock.Anything)
}

// TestCheckIn_Fail_InactiveItem: itens desativados não recebem estoque novo.
func TestCheckIn_Fail_InactiveItem(t *testing.T) {
	mockLedger := new(MockStockLedger)
	mockCatalog := new(MockCatalogReader)
	svc := newService(mockLedger, mockCatalog, new(MockWarehouseReader))

	itemID := uuid.New().String()
	actor := domain.Actor{ID: "m1", Role: domain.RoleManager}

	mockCatalog.On("FindByID", mock.Anything, itemID).
		Return(domain.Item{ID: itemID, SKU: "SKU-1", IsActive: false}, nil)

	_, err := svc.CheckIn(context.Background(), actor, domain.CheckInRequest{ItemID: itemID, WarehouseID: "wh-a", Qty: 5})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestGetOnHand_Delegation: consultas de saldo passam direto ao ledger.
func TestGetOnHand_Delegation(t *testing.T) {
	mockLedger := new(MockStockLedger)
	svc := newService(mockLedger, new(MockCatalogReader), new(MockWarehouseReader))

	mockLedger.On("GetOnHand", mock.Anything, "item-1", "wh-a").
		Return(domain.Inventory{ItemID: "item-1", WarehouseID: "wh-a", OnHandQty: 7}, nil)

	inv, err := svc.GetOnHand(context.Background(), "item-1", "wh-a")

	assert.NoError(t, err)
	assert.Equal(t, 7, inv.OnHandQty)
	mockLedger.AssertExpectations(t)
}
