package requestservice_test

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
	"stockflow/internal/service/requestservice"
	"stockflow/internal/service/sufficiency"
)

// MockRequestRepository é uma implementação mock da interface RequestRepository
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, req domain.Request, notifications []domain.TransferNotification) (domain.Request, error) {
	args := m.Called(ctx, req, notifications)
	return args.Get(0).(domain.Request), args.Error(1)
}

func (m *MockRequestRepository) FindByID(ctx context.Context, id string) (domain.Request, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Request), args.Error(1)
}

func (m *MockRequestRepository) FindAll(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Request), args.Error(1)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (domain.Request, error) {
	args := m.Called(ctx, id, from, to)
	return args.Get(0).(domain.Request), args.Error(1)
}

func (m *MockRequestRepository) Cancel(ctx context.Context, id string) (domain.Request, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Request), args.Error(1)
}

// MockLineResolver é uma implementação mock da interface LineResolver
type MockLineResolver struct {
	mock.Mock
}

func (m *MockLineResolver) ResolveLine(ctx context.Context, line domain.RequestLine, destinationWarehouseID string) (sufficiency.Outcome, error) {
	args := m.Called(ctx, line, destinationWarehouseID)
	return args.Get(0).(sufficiency.Outcome), args.Error(1)
}

// MockLedger é uma implementação mock da interface Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) FulfillRequest(ctx context.Context, requestID string) (domain.Request, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(domain.Request), args.Error(1)
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

func (m *MockWarehouseReader) ListOperators(ctx context.Context, warehouseID string) ([]domain.WarehouseOperator, error) {
	args := m.Called(ctx, warehouseID)
	return args.Get(0).([]domain.WarehouseOperator), args.Error(1)
}

// fakeSink e fakeNotifier registram as chamadas sem efeito colateral.
type fakeSink struct{ events []domain.Event }

func (f *fakeSink) Emit(ctx context.Context, event domain.Event) error {
	f.events = append(f.events, event)
	return nil
}

type fakeNotifier struct {
	approvalNeeded  []string // IDs das entidades notificadas
	requestResolved []string // IDs das requisições resolvidas
}

func (f *fakeNotifier) ApprovalNeeded(ctx context.Context, warehouseID, entityID, body string) error {
	f.approvalNeeded = append(f.approvalNeeded, entityID)
	return nil
}

func (f *fakeNotifier) RequestResolved(ctx context.Context, recipientID, requestID, body string) error {
	f.requestResolved = append(f.requestResolved, requestID)
	return nil
}

type serviceFixture struct {
	repo      *MockRequestRepository
	resolver  *MockLineResolver
	ledger    *MockLedger
	catalog   *MockCatalogReader
	warehouse *MockWarehouseReader
	sink      *fakeSink
	notifier  *fakeNotifier
	svc       *requestservice.Service
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		repo:      new(MockRequestRepository),
		resolver:  new(MockLineResolver),
		ledger:    new(MockLedger),
		catalog:   new(MockCatalogReader),
		warehouse: new(MockWarehouseReader),
		sink:      &fakeSink{},
		notifier:  &fakeNotifier{},
	}
	f.svc = requestservice.NewService(
		f.repo, f.resolver, f.ledger, f.catalog, f.warehouse,
		policy.New(10), f.sink, f.notifier, logger.NewLogger("debug"),
	)
	return f
}

func (f *serviceFixture) expectActiveMasterData(warehouseID string, itemIDs ...string) {
	f.warehouse.On("GetWarehouseByID", mock.Anything, warehouseID).
		Return(domain.Warehouse{ID: warehouseID, Code: "WH-A", IsActive: true}, nil)
	for _, itemID := range itemIDs {
		f.catalog.On("FindByID", mock.Anything, itemID).
			Return(domain.Item{ID: itemID, SKU: "SKU-" + itemID, IsActive: true}, nil)
	}
}

// TestSubmit_AllLocal_AutoApproved: todas as linhas locais e abaixo do limite
// de auto-aprovação; a requisição nasce approved, sem notificações.
func TestSubmit_AllLocal_AutoApproved(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}
	f.expectActiveMasterData("wh-dest", "item-1")

	f.resolver.On("ResolveLine", mock.Anything, mock.AnythingOfType("domain.RequestLine"), "wh-dest").
		Return(sufficiency.Outcome{Kind: domain.OutcomeLocalSufficient}, nil)

	var persisted domain.Request
	var persistedNotifications []domain.TransferNotification
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("domain.Request"), mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(domain.Request)
			persistedNotifications = args.Get(2).([]domain.TransferNotification)
		}).
		Return(domain.Request{ID: "req-1", Status: domain.RequestApproved, RequesterID: "r1"}, nil)

	input := domain.SubmitRequestInput{
		OriginWarehouseID: "wh-dest",
		Priority:          domain.PriorityNormal,
		Lines:             []domain.SubmitRequestLineInput{{ItemID: "item-1", RequestedQty: 5}},
	}
	result, err := f.svc.Submit(context.Background(), actor, input)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, result.Status)
	assert.Equal(t, domain.RequestApproved, persisted.Status)
	assert.Equal(t, "r1", persisted.RequesterID)
	assert.Len(t, persisted.Lines, 1)
	assert.Equal(t, domain.OutcomeLocalSufficient, persisted.Lines[0].Outcome)
	assert.Empty(t, persistedNotifications)
	f.repo.AssertExpectations(t)
}

// TestSubmit_AllLocal_AboveThreshold_WaitsManualGate: acima do limite, a
// requisição permanece submitted até o gate manual.
func TestSubmit_AllLocal_AboveThreshold_WaitsManualGate(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}
	f.expectActiveMasterData("wh-dest", "item-1")

	f.resolver.On("ResolveLine", mock.Anything, mock.AnythingOfType("domain.RequestLine"), "wh-dest").
		Return(sufficiency.Outcome{Kind: domain.OutcomeLocalSufficient}, nil)

	var persisted domain.Request
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("domain.Request"), mock.Anything).
		Run(func(args mock.Arguments) { persisted = args.Get(1).(domain.Request) }).
		Return(domain.Request{ID: "req-1", Status: domain.RequestSubmitted}, nil)

	input := domain.SubmitRequestInput{
		OriginWarehouseID: "wh-dest",
		Priority:          domain.PriorityNormal,
		Lines:             []domain.SubmitRequestLineInput{{ItemID: "item-1", RequestedQty: 50}},
	}
	_, err := f.svc.Submit(context.Background(), actor, input)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestSubmitted, persisted.Status)
}

// TestSubmit_Transferable_CreatesPendingNotification: déficit coberto por
// outro armazém gera notificação pendente com snapshot, e a requisição nasce
// pending-transfer.
func TestSubmit_Transferable_CreatesPendingNotification(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}
	f.expectActiveMasterData("wh-dest", "item-1")

	f.resolver.On("ResolveLine", mock.Anything, mock.AnythingOfType("domain.RequestLine"), "wh-dest").
		Return(sufficiency.Outcome{
			Kind:                 domain.OutcomeTransferable,
			ShortfallQty:         6,
			SourceWarehouseID:    "wh-src",
			AvailableQtyAtSource: 9,
		}, nil)
	f.warehouse.On("ListOperators", mock.Anything, "wh-src").
		Return([]domain.WarehouseOperator{{WarehouseID: "wh-src", UserID: "op1"}}, nil)

	var persisted domain.Request
	var persistedNotifications []domain.TransferNotification
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("domain.Request"), mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(domain.Request)
			persistedNotifications = args.Get(2).([]domain.TransferNotification)
		}).
		Return(domain.Request{ID: "req-1", Status: domain.RequestPendingTransfer}, nil)

	input := domain.SubmitRequestInput{
		OriginWarehouseID: "wh-dest",
		Priority:          domain.PriorityNormal,
		Lines:             []domain.SubmitRequestLineInput{{ItemID: "item-1", RequestedQty: 10}},
	}
	_, err := f.svc.Submit(context.Background(), actor, input)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestPendingTransfer, persisted.Status)
	assert.Len(t, persistedNotifications, 1)

	n := persistedNotifications[0]
	assert.Equal(t, domain.NotificationPending, n.Status)
	assert.Equal(t, "wh-src", n.SourceWarehouseID)
	assert.Equal(t, 6, n.RequiredQty)
	assert.Equal(t, 9, n.AvailableQtyAtSource)
	assert.False(t, n.Escalated)
	assert.Len(t, f.notifier.approvalNeeded, 1, "revisores da origem devem ser avisados")
}

// TestSubmit_Transferable_EscalatesWhenSourceHasNoOperator: origem sem
// operador designado gera notificação escalonada, nunca descartada.
func TestSubmit_Transferable_EscalatesWhenSourceHasNoOperator(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}
	f.expectActiveMasterData("wh-dest", "item-1")

	f.resolver.On("ResolveLine", mock.Anything, mock.AnythingOfType("domain.RequestLine"), "wh-dest").
		Return(sufficiency.Outcome{
			Kind:                 domain.OutcomeTransferable,
			ShortfallQty:         3,
			SourceWarehouseID:    "wh-src",
			AvailableQtyAtSource: 5,
		}, nil)
	f.warehouse.On("ListOperators", mock.Anything, "wh-src").
		Return([]domain.WarehouseOperator{}, nil)

	var persistedNotifications []domain.TransferNotification
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("domain.Request"), mock.Anything).
		Run(func(args mock.Arguments) {
			persistedNotifications = args.Get(2).([]domain.TransferNotification)
		}).
		Return(domain.Request{ID: "req-1", Status: domain.RequestPendingTransfer}, nil)

	input := domain.SubmitRequestInput{
		OriginWarehouseID: "wh-dest",
		Priority:          domain.PriorityNormal,
		Lines:             []domain.SubmitRequestLineInput{{ItemID: "item-1", RequestedQty: 3}},
	}
	_, err := f.svc.Submit(context.Background(), actor, input)

	assert.NoError(t, err)
	assert.Len(t, persistedNotifications, 1)
	assert.True(t, persistedNotifications[0].Escalated)
}

// TestSubmit_Unresolvable_RejectsWholeRequest: uma linha insolúvel rejeita a
// requisição inteira na submissão; nenhuma notificação é criada.
func TestSubmit_Unresolvable_RejectsWholeRequest(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}
	f.expectActiveMasterData("wh-dest", "item-1", "item-2")

	f.resolver.On("ResolveLine", mock.Anything, mock.MatchedBy(func(l domain.RequestLine) bool { return l.ItemID == "item-1" }), "wh-dest").
		Return(sufficiency.Outcome{Kind: domain.OutcomeLocalSufficient}, nil)
	f.resolver.On("ResolveLine", mock.Anything, mock.MatchedBy(func(l domain.RequestLine) bool { return l.ItemID == "item-2" }), "wh-dest").
		Return(sufficiency.Outcome{Kind: domain.OutcomeUnresolvable, ShortfallQty: 20}, nil)

	var persisted domain.Request
	var persistedNotifications []domain.TransferNotification
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("domain.Request"), mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(domain.Request)
			persistedNotifications = args.Get(2).([]domain.TransferNotification)
		}).
		Return(domain.Request{ID: "req-1", Status: domain.RequestRejected, RequesterID: "r1"}, nil)

	input := domain.SubmitRequestInput{
		OriginWarehouseID: "wh-dest",
		Priority:          domain.PriorityNormal,
		Lines: []domain.SubmitRequestLineInput{
			{ItemID: "item-1", RequestedQty: 2},
			{ItemID: "item-2", RequestedQty: 20},
		},
	}
	_, err := f.svc.Submit(context.Background(), actor, input)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, persisted.Status)
	assert.NotNil(t, persisted.ResolvedAt)
	assert.Empty(t, persistedNotifications)
	assert.Len(t, f.notifier.requestResolved, 1, "o solicitante deve saber da rejeição")
}

// TestSubmit_Fail_NonPositiveQty: quantidade não positiva é recusada antes
// de qualquer escrita.
func TestSubmit_Fail_NonPositiveQty(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}

	input := domain.SubmitRequestInput{
		OriginWarehouseID: "wh-dest",
		Priority:          domain.PriorityNormal,
		Lines:             []domain.SubmitRequestLineInput{{ItemID: "item-1", RequestedQty: 0}},
	}
	_, err := f.svc.Submit(context.Background(), actor, input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// TestSubmit_Fail_InactiveItem: item desativado não entra em requisição nova.
func TestSubmit_Fail_InactiveItem(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}

	f.warehouse.On("GetWarehouseByID", mock.Anything, "wh-dest").
		Return(domain.Warehouse{ID: "wh-dest", Code: "WH-A", IsActive: true}, nil)
	f.catalog.On("FindByID", mock.Anything, "item-1").
		Return(domain.Item{ID: "item-1", SKU: "SKU-1", IsActive: false}, nil)

	input := domain.SubmitRequestInput{
		OriginWarehouseID: "wh-dest",
		Priority:          domain.PriorityNormal,
		Lines:             []domain.SubmitRequestLineInput{{ItemID: "item-1", RequestedQty: 1}},
	}
	_, err := f.svc.Submit(context.Background(), actor, input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestSubmit_Fail_EmptyLines: requisição sem linhas.
func TestSubmit_Fail_EmptyLines(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}

	_, err := f.svc.Submit(context.Background(), actor, domain.SubmitRequestInput{OriginWarehouseID: "wh-dest"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestCancel_Owner_Succeeds: o dono cancela a própria requisição.
func TestCancel_Owner_Succeeds(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r1", Role: domain.RoleRequester}
	requestID := uuid.New().String()

	f.repo.On("FindByID", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestPendingTransfer}, nil)
	f.repo.On("Cancel", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestCancelled}, nil)

	result, err := f.svc.Cancel(context.Background(), actor, requestID)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, result.Status)
	f.repo.AssertExpectations(t)
}

// TestCancel_Fail_NotOwner: solicitante não cancela requisição alheia.
func TestCancel_Fail_NotOwner(t *testing.T) {
	f := newFixture()
	actor := domain.Actor{ID: "r2", Role: domain.RoleRequester}
	requestID := uuid.New().String()

	f.repo.On("FindByID", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestSubmitted}, nil)

	_, err := f.svc.Cancel(context.Background(), actor, requestID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.AuthorizationError{}, err)
	f.repo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

// TestUpdateStatus_Fail_IllegalTransition: o grafo de estados é aplicado
// antes de qualquer escrita.
func TestUpdateStatus_Fail_IllegalTransition(t *testing.T) {
	f := newFixture()
	manager := domain.Actor{ID: "m1", Role: domain.RoleManager}
	requestID := uuid.New().String()

	f.repo.On("FindByID", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, Status: domain.RequestSubmitted}, nil)

	// submitted -> fulfilled pula o gate de aprovação
	_, err := f.svc.UpdateStatus(context.Background(), manager, requestID, domain.RequestFulfilled)

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "FulfillRequest", mock.Anything, mock.Anything)
}

// TestUpdateStatus_Fulfilled_GoesThroughLedger: a entrada em fulfilled é uma
// operação do Stock Ledger (débito + gravação de status na mesma transação).
func TestUpdateStatus_Fulfilled_GoesThroughLedger(t *testing.T) {
	f := newFixture()
	manager := domain.Actor{ID: "m1", Role: domain.RoleManager}
	requestID := uuid.New().String()

	f.repo.On("FindByID", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestApproved}, nil)
	f.ledger.On("FulfillRequest", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestFulfilled}, nil)

	result, err := f.svc.UpdateStatus(context.Background(), manager, requestID, domain.RequestFulfilled)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestFulfilled, result.Status)
	assert.Len(t, f.notifier.requestResolved, 1)
	f.ledger.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestUpdateStatus_Cancelled_RoutesThroughCancelCascade: um PATCH para
// cancelled não pode contornar o cancelamento em cascata — a transição passa
// pelo caminho de Cancel, nunca pelo UpdateStatus do repositório.
func TestUpdateStatus_Cancelled_RoutesThroughCancelCascade(t *testing.T) {
	f := newFixture()
	manager := domain.Actor{ID: "m1", Role: domain.RoleManager}
	requestID := uuid.New().String()

	f.repo.On("FindByID", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestPendingTransfer}, nil)
	f.repo.On("Cancel", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestCancelled}, nil)

	result, err := f.svc.UpdateStatus(context.Background(), manager, requestID, domain.RequestCancelled)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, result.Status)
	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestUpdateStatus_Fail_PendingTransferCannotBeApproved: enquanto houver
// notificações pendentes, a requisição não pode ser aprovada por fora.
func TestUpdateStatus_Fail_PendingTransferCannotBeApproved(t *testing.T) {
	f := newFixture()
	manager := domain.Actor{ID: "m1", Role: domain.RoleManager}
	requestID := uuid.New().String()

	f.repo.On("FindByID", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestPendingTransfer}, nil)

	_, err := f.svc.UpdateStatus(context.Background(), manager, requestID, domain.RequestApproved)

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestUpdateStatus_Fail_RequesterCannotApprove: o gate manual é de manager/admin.
func TestUpdateStatus_Fail_RequesterCannotApprove(t *testing.T) {
	f := newFixture()
	requester := domain.Actor{ID: "r1", Role: domain.RoleRequester}
	requestID := uuid.New().String()

	f.repo.On("FindByID", mock.Anything, requestID).
		Return(domain.Request{ID: requestID, RequesterID: "r1", Status: domain.RequestSubmitted}, nil)

	_, err := f.svc.UpdateStatus(context.Background(), requester, requestID, domain.RequestApproved)

	assert.Error(t, err)
	assert.IsType(t, &apperror.AuthorizationError{}, err)
}

// TestListForActor_RequesterIsScopedToOwnRequests: o filtro de solicitante é
// forçado ao próprio ID, independente do que veio de fora.
func TestListForActor_RequesterIsScopedToOwnRequests(t *testing.T) {
	f := newFixture()
	requester := domain.Actor{ID: "r1", Role: domain.RoleRequester}

	var usedFilter domain.RequestFilter
	f.repo.On("FindAll", mock.Anything, mock.AnythingOfType("domain.RequestFilter")).
		Run(func(args mock.Arguments) { usedFilter = args.Get(1).(domain.RequestFilter) }).
		Return([]domain.Request{}, nil)

	_, err := f.svc.ListForActor(context.Background(), requester, domain.RequestFilter{RequesterID: "outro"})

	assert.NoError(t, err)
	assert.Equal(t, "r1", usedFilter.RequesterID)
}
