package itemservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// Service encapsula as regras de negócio do catálogo de itens.
type Service struct {
	repo   domain.ItemRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Itens.
func NewService(repo domain.ItemRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateItem valida e cria um item do catálogo.
func (s *Service) CreateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	s.logger.Debug("Iniciando criação de item no serviço.", map[string]interface{}{"sku": item.SKU})

	if item.SKU == "" || item.Name == "" {
		return domain.Item{}, apperror.NewValidationError("SKU e nome do item são obrigatórios.")
	}
	if item.UnitValue < 0 {
		return domain.Item{}, apperror.NewValidationError("O valor unitário não pode ser negativo.")
	}

	now := time.Now().UTC()
	item.ID = uuid.New().String()
	item.IsActive = true
	item.CreatedAt = now
	item.UpdatedAt = now

	created, err := s.repo.Save(ctx, item)
	if err != nil {
		s.logger.Error("Falha ao criar item no repositório.", err)
		return domain.Item{}, err
	}

	s.logger.Info("Item criado com sucesso.", map[string]interface{}{"id": created.ID, "sku": created.SKU})
	return created, nil
}

// GetItemByID busca um item pelo ID.
func (s *Service) GetItemByID(ctx context.Context, id string) (domain.Item, error) {
	return s.repo.FindByID(ctx, id)
}

// GetAllItems lista itens segundo o filtro.
func (s *Service) GetAllItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	return s.repo.FindAll(ctx, filter)
}

// UpdateItem valida e atualiza os dados mestre de um item existente.
func (s *Service) UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	if item.SKU == "" || item.Name == "" {
		return domain.Item{}, apperror.NewValidationError("SKU e nome do item são obrigatórios.")
	}
	if item.UnitValue < 0 {
		return domain.Item{}, apperror.NewValidationError("O valor unitário não pode ser negativo.")
	}

	current, err := s.repo.FindByID(ctx, item.ID)
	if err != nil {
		return domain.Item{}, err
	}

	current.SKU = item.SKU
	current.Name = item.Name
	current.Description = item.Description
	current.UnitValue = item.UnitValue
	current.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, current); err != nil {
		s.logger.Error("Falha ao atualizar item no repositório.", err)
		return domain.Item{}, err
	}
	return current, nil
}

// DeactivateItem desativa um item (soft delete). Itens inativos deixam de
// ser aceitos em novas requisições e check-ins; o histórico permanece.
func (s *Service) DeactivateItem(ctx context.Context, id string) error {
	s.logger.Debug("Iniciando desativação de item no serviço.", map[string]interface{}{"id": id})
	return s.repo.Deactivate(ctx, id)
}
