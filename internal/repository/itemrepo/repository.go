package itemrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// ItemRepository implementa a interface domain.ItemRepository.
// Itens são dados mestre: o motor de requisições só consulta existência e
// o flag de ativo; desativar nunca apaga fisicamente (soft delete).
type ItemRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewItemRepository cria e retorna uma nova instância do Repositório de Itens.
func NewItemRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ItemRepository {
	return &ItemRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save persiste um novo Item no banco de dados.
func (r *ItemRepository) Save(ctx context.Context, item domain.Item) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
        INSERT INTO items (id, sku, name, description, unit_value, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.DB.ExecContext(ctxTimeout, query,
		item.ID, item.SKU, item.Name, item.Description, item.UnitValue, item.IsActive,
		item.CreatedAt, item.UpdatedAt,
	); err != nil {
		r.logger.Error("Falha ao inserir item no DB.", err)
		return domain.Item{}, errors.NewDBError("Falha ao criar item", err)
	}

	r.logger.Info("Item criado com sucesso.", map[string]interface{}{"id": item.ID, "sku": item.SKU})
	return item, nil
}

// FindByID busca um item pelo ID.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, sku, name, description, unit_value, is_active, created_at, updated_at
        FROM items
        WHERE id = $1`

	var item domain.Item
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&item.ID, &item.SKU, &item.Name, &item.Description, &item.UnitValue,
		&item.IsActive, &item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Item{}, errors.NewNotFoundError(fmt.Sprintf("Item %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar item no DB.", err)
		return domain.Item{}, errors.NewDBError("Falha ao buscar item", err)
	}
	return item, nil
}

// FindAll lista itens segundo o filtro, com paginação.
func (r *ItemRepository) FindAll(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, sku, name, description, unit_value, is_active, created_at, updated_at
        FROM items
        WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.SKU != "" {
		query += fmt.Sprintf(" AND sku = $%d", argPos)
		args = append(args, filter.SKU)
		argPos++
	}
	if filter.Name != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argPos)
		args = append(args, "%"+filter.Name+"%")
		argPos++
	}
	if filter.ActiveOnly {
		query += " AND is_active = TRUE"
	}

	query += " ORDER BY name"

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar itens no DB.", err)
		return nil, errors.NewDBError("Falha ao listar itens", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID, &item.SKU, &item.Name, &item.Description, &item.UnitValue,
			&item.IsActive, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, errors.NewDBError("Falha ao ler item", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update atualiza os campos mutáveis de um item.
func (r *ItemRepository) Update(ctx context.Context, item domain.Item) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE items
        SET name = $1, description = $2, unit_value = $3, is_active = $4, updated_at = $5
        WHERE id = $6`

	result, err := r.DB.ExecContext(ctxTimeout, query,
		item.Name, item.Description, item.UnitValue, item.IsActive, time.Now().UTC(), item.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar item no DB.", err)
		return errors.NewDBError("Falha ao atualizar item", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Item %s não encontrado.", item.ID))
	}
	return nil
}

// Deactivate desativa um item (soft delete): requisições existentes que o
// referenciam permanecem íntegras para auditoria.
func (r *ItemRepository) Deactivate(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE items SET is_active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error("Falha ao desativar item no DB.", err)
		return errors.NewDBError("Falha ao desativar item", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Item %s não encontrado.", id))
	}
	return nil
}
