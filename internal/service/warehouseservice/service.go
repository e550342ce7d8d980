package warehouseservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// Service encapsula as regras de negócio de armazéns e suas designações.
type Service struct {
	repo   domain.WarehouseRepository
	users  domain.UserRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Armazéns.
func NewService(repo domain.WarehouseRepository, users domain.UserRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

// CreateWarehouse valida e cria um armazém.
func (s *Service) CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error) {
	s.logger.Debug("Iniciando criação de armazém no serviço.", map[string]interface{}{"code": warehouse.Code})

	if warehouse.Code == "" || warehouse.Name == "" {
		return domain.Warehouse{}, apperror.NewValidationError("Código e nome do armazém são obrigatórios.")
	}

	now := time.Now().UTC()
	warehouse.ID = uuid.New().String()
	warehouse.IsActive = true
	warehouse.CreatedAt = now
	warehouse.UpdatedAt = now

	created, err := s.repo.CreateWarehouse(ctx, warehouse)
	if err != nil {
		s.logger.Error("Falha ao criar armazém no repositório.", err)
		return domain.Warehouse{}, err
	}

	s.logger.Info("Armazém criado com sucesso.", map[string]interface{}{"id": created.ID, "code": created.Code})
	return created, nil
}

// GetWarehouseByID busca um armazém pelo ID.
func (s *Service) GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error) {
	return s.repo.GetWarehouseByID(ctx, id)
}

// GetAllWarehouses lista todos os armazéns.
func (s *Service) GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	return s.repo.GetAllWarehouses(ctx)
}

// UpdateWarehouse valida e atualiza um armazém existente.
func (s *Service) UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error) {
	if warehouse.Code == "" || warehouse.Name == "" {
		return domain.Warehouse{}, apperror.NewValidationError("Código e nome do armazém são obrigatórios.")
	}

	current, err := s.repo.GetWarehouseByID(ctx, warehouse.ID)
	if err != nil {
		return domain.Warehouse{}, err
	}

	current.Code = warehouse.Code
	current.Name = warehouse.Name
	current.UpdatedAt = time.Now().UTC()

	return s.repo.UpdateWarehouse(ctx, current)
}

// DeactivateWarehouse desativa um armazém. Armazéns inativos deixam de ser
// candidatos do Resolvedor de Suficiência e de aceitar novas requisições;
// transferências já em voo seguem o próprio ciclo até o fim.
func (s *Service) DeactivateWarehouse(ctx context.Context, id string) error {
	s.logger.Debug("Iniciando desativação de armazém no serviço.", map[string]interface{}{"id": id})
	return s.repo.DeactivateWarehouse(ctx, id)
}

// AssignOperator designa um usuário como operador do armazém. Só usuários de
// papel operator são elegíveis; a designação é idempotente.
func (s *Service) AssignOperator(ctx context.Context, warehouseID, userID string) error {
	s.logger.Debug("Iniciando designação de operador no serviço.", map[string]interface{}{
		"warehouse_id": warehouseID, "user_id": userID,
	})

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleOperator {
		return apperror.NewValidationError("Apenas usuários de papel operator podem ser designados a armazéns.")
	}

	if _, err := s.repo.GetWarehouseByID(ctx, warehouseID); err != nil {
		return err
	}

	if err := s.repo.AssignOperator(ctx, warehouseID, userID); err != nil {
		s.logger.Error("Falha ao designar operador no repositório.", err)
		return err
	}

	s.logger.Info("Operador designado com sucesso.", map[string]interface{}{
		"warehouse_id": warehouseID, "user_id": userID,
	})
	return nil
}

// ListOperators lista os operadores designados do armazém.
func (s *Service) ListOperators(ctx context.Context, warehouseID string) ([]domain.WarehouseOperator, error) {
	return s.repo.ListOperators(ctx, warehouseID)
}
