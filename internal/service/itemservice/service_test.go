package itemservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/service/itemservice"
)

// MockItemRepository é uma implementação mock da interface ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Save(ctx context.Context, item domain.Item) (domain.Item, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id string) (domain.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockItemRepository) FindAll(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, item domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TestCreateItem_Success testa a criação de um item válido.
func TestCreateItem_Success(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockLogger := logger.NewLogger("debug")

	svc := itemservice.NewService(mockRepo, mockLogger)

	input := domain.Item{SKU: "PAR-001", Name: "Parafuso M8", UnitValue: 0.35}

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(it domain.Item) bool {
		return it.SKU == "PAR-001" && it.IsActive && it.ID != ""
	})).Return(domain.Item{ID: uuid.New().String(), SKU: "PAR-001", Name: "Parafuso M8", IsActive: true}, nil)

	created, err := svc.CreateItem(context.Background(), input)

	assert.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.NotEmpty(t, created.ID)
	mockRepo.AssertExpectations(t)
}

// TestCreateItem_Fail_MissingSKU testa a rejeição de um item sem SKU.
func TestCreateItem_Fail_MissingSKU(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockLogger := logger.NewLogger("debug")

	svc := itemservice.NewService(mockRepo, mockLogger)

	_, err := svc.CreateItem(context.Background(), domain.Item{Name: "Sem SKU"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateItem_Fail_NegativeUnitValue testa a rejeição de valor unitário negativo.
func TestCreateItem_Fail_NegativeUnitValue(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockLogger := logger.NewLogger("debug")

	svc := itemservice.NewService(mockRepo, mockLogger)

	_, err := svc.CreateItem(context.Background(), domain.Item{SKU: "X", Name: "Y", UnitValue: -1})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestUpdateItem_Success testa que a atualização preserva campos não enviados.
func TestUpdateItem_Success(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockLogger := logger.NewLogger("debug")

	svc := itemservice.NewService(mockRepo, mockLogger)

	id := uuid.New().String()
	existing := domain.Item{ID: id, SKU: "PAR-001", Name: "Parafuso M8", IsActive: true}

	mockRepo.On("FindByID", mock.Anything, id).Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(it domain.Item) bool {
		return it.ID == id && it.Name == "Parafuso M8 Inox" && it.IsActive
	})).Return(nil)

	updated, err := svc.UpdateItem(context.Background(), domain.Item{ID: id, SKU: "PAR-001", Name: "Parafuso M8 Inox", UnitValue: 0.55})

	assert.NoError(t, err)
	assert.Equal(t, "Parafuso M8 Inox", updated.Name)
	assert.True(t, updated.IsActive)
	mockRepo.AssertExpectations(t)
}

// TestUpdateItem_Fail_NotFound testa a atualização de um item inexistente.
func TestUpdateItem_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockLogger := logger.NewLogger("debug")

	svc := itemservice.NewService(mockRepo, mockLogger)

	id := uuid.New().String()
	mockRepo.On("FindByID", mock.Anything, id).Return(domain.Item{}, apperror.NewNotFoundError("Item não encontrado."))

	_, err := svc.UpdateItem(context.Background(), domain.Item{ID: id, SKU: "X", Name: "Y"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestDeactivateItem_PropagatesRepositoryError testa a propagação de erros do repositório.
func TestDeactivateItem_PropagatesRepositoryError(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockLogger := logger.NewLogger("debug")

	svc := itemservice.NewService(mockRepo, mockLogger)

	id := uuid.New().String()
	repoErr := errors.New("conexão perdida")
	mockRepo.On("Deactivate", mock.Anything, id).Return(repoErr)

	err := svc.DeactivateItem(context.Background(), id)

	assert.Error(t, err)
	assert.Equal(t, repoErr, err)
	mockRepo.AssertExpectations(t)
}
