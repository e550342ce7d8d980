package warehouserepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/logger"
)

// Define a chave de cache para armazéns.
const warehouseCacheKey = "warehouse:%s"

// WarehouseRepository implementa a interface domain.WarehouseRepository.
// Armazéns são lidos em todo submit/resolve; FindByID usa Cache-Aside.
type WarehouseRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewWarehouseRepository cria e retorna uma nova instância do Repositório de Armazéns.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewWarehouseRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *WarehouseRepository {
	return &WarehouseRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// CreateWarehouse insere um novo armazém no banco de dados.
func (r *WarehouseRepository) CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if warehouse.ID == "" {
		warehouse.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	warehouse.CreatedAt = now
	warehouse.UpdatedAt = now
	warehouse.IsActive = true

	query := `
        INSERT INTO warehouses (id, code, name, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.DB.ExecContext(ctxTimeout, query,
		warehouse.ID, warehouse.Code, warehouse.Name, warehouse.IsActive,
		warehouse.CreatedAt, warehouse.UpdatedAt,
	); err != nil {
		r.logger.Error("Falha ao inserir armazém no DB.", err)
		return domain.Warehouse{}, errors.NewDBError("Falha ao criar armazém", err)
	}

	r.logger.Info("Armazém criado com sucesso.", map[string]interface{}{"id": warehouse.ID, "code": warehouse.Code})
	return warehouse, nil
}

// GetWarehouseByID busca um armazém pelo ID, utilizando a estratégia Cache-Aside.
func (r *WarehouseRepository) GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(warehouseCacheKey, id)

	// Cache-Aside (READ): tenta o Redis antes do banco.
	var warehouse domain.Warehouse
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &warehouse) == nil {
			return warehouse, nil
		}
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): seguimos para o banco.
		r.logger.Warn("Falha ao ler armazém do cache; consultando o banco.", map[string]interface{}{"id": id})
	}

	query := `
        SELECT id, code, name, is_active, created_at, updated_at
        FROM warehouses
        WHERE id = $1`

	err = r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&warehouse.ID, &warehouse.Code, &warehouse.Name, &warehouse.IsActive,
		&warehouse.CreatedAt, &warehouse.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Warehouse{}, errors.NewNotFoundError(fmt.Sprintf("Armazém %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar armazém no DB.", err)
		return domain.Warehouse{}, errors.NewDBError("Falha ao buscar armazém", err)
	}

	// Cache-Aside (WRITE): melhor esforço.
	if data, err := json.Marshal(warehouse); err == nil {
		_ = r.Cache.Set(ctxTimeout, key, string(data), r.CacheTTL)
	}

	return warehouse, nil
}

// GetAllWarehouses busca todos os armazéns.
func (r *WarehouseRepository) GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, code, name, is_active, created_at, updated_at
        FROM warehouses
        ORDER BY code`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar armazéns no DB.", err)
		return nil, errors.NewDBError("Falha ao listar armazéns", err)
	}
	defer rows.Close()

	var warehouses []domain.Warehouse
	for rows.Next() {
		var w domain.Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler armazém", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

// UpdateWarehouse atualiza os campos mutáveis de um armazém e invalida o cache.
func (r *WarehouseRepository) UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	warehouse.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE warehouses
        SET name = $1, is_active = $2, updated_at = $3
        WHERE id = $4`

	result, err := r.DB.ExecContext(ctxTimeout, query,
		warehouse.Name, warehouse.IsActive, warehouse.UpdatedAt, warehouse.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar armazém no DB.", err)
		return domain.Warehouse{}, errors.NewDBError("Falha ao atualizar armazém", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Warehouse{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Warehouse{}, errors.NewNotFoundError(fmt.Sprintf("Armazém %s não encontrado.", warehouse.ID))
	}

	_ = r.Cache.Delete(ctxTimeout, fmt.Sprintf(warehouseCacheKey, warehouse.ID))
	return warehouse, nil
}

// DeactivateWarehouse desativa um armazém (soft delete) e invalida o cache.
// Armazéns desativados deixam de ser candidatos a origem de transferência.
func (r *WarehouseRepository) DeactivateWarehouse(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE warehouses SET is_active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error("Falha ao desativar armazém no DB.", err)
		return errors.NewDBError("Falha ao desativar armazém", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Armazém %s não encontrado.", id))
	}

	_ = r.Cache.Delete(ctxTimeout, fmt.Sprintf(warehouseCacheKey, id))
	return nil
}

// AssignOperator designa um usuário como operador do armazém.
func (r *WarehouseRepository) AssignOperator(ctx context.Context, warehouseID, userID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO warehouse_operators (warehouse_id, user_id, assigned_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (warehouse_id, user_id) DO NOTHING`

	if _, err := r.DB.ExecContext(ctxTimeout, query, warehouseID, userID, time.Now().UTC()); err != nil {
		r.logger.Error("Falha ao designar operador no DB.", err)
		return errors.NewDBError("Falha ao designar operador", err)
	}
	return nil
}

// ListOperators lista os operadores designados do armazém.
// Usada pelo gate de notificações para decidir entre revisão local e
// escalonamento ao administrador.
func (r *WarehouseRepository) ListOperators(ctx context.Context, warehouseID string) ([]domain.WarehouseOperator, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT warehouse_id, user_id, assigned_at
        FROM warehouse_operators
        WHERE warehouse_id = $1
        ORDER BY assigned_at`, warehouseID)
	if err != nil {
		r.logger.Error("Falha ao listar operadores no DB.", err)
		return nil, errors.NewDBError("Falha ao listar operadores", err)
	}
	defer rows.Close()

	var operators []domain.WarehouseOperator
	for rows.Next() {
		var op domain.WarehouseOperator
		if err := rows.Scan(&op.WarehouseID, &op.UserID, &op.AssignedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler operador", err)
		}
		operators = append(operators, op)
	}
	return operators, rows.Err()
}

// ListAssignmentsForUser lista os IDs dos armazéns em que o usuário é
// operador designado. Usada no login para embutir as designações no token.
func (r *WarehouseRepository) ListAssignmentsForUser(ctx context.Context, userID string) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT warehouse_id
        FROM warehouse_operators
        WHERE user_id = $1
        ORDER BY warehouse_id`, userID)
	if err != nil {
		r.logger.Error("Falha ao listar designações no DB.", err)
		return nil, errors.NewDBError("Falha ao listar designações", err)
	}
	defer rows.Close()

	var warehouseIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewDBError("Falha ao ler designação", err)
		}
		warehouseIDs = append(warehouseIDs, id)
	}
	return warehouseIDs, rows.Err()
}
