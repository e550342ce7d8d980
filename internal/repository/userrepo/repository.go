package userrepo

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

// UserRepository implementa a interface domain.UserRepository.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria e retorna uma nova instância do Repositório de Usuários.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save persiste um novo usuário no banco de dados.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
        INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.DB.ExecContext(ctxTimeout, query,
		user.ID, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt,
	); err != nil {
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, errors.NewDBError("Falha ao criar usuário", err)
	}

	r.logger.Info("Usuário criado com sucesso.", map[string]interface{}{"id": user.ID, "email": user.Email})
	return user, nil
}

// FindByEmail busca um usuário pelo e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, email, password_hash, role, created_at, updated_at
        FROM users
        WHERE email = $1`

	var user domain.User
	err := r.DB.QueryRowContext(ctxTimeout, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.User{}, errors.NewNotFoundError(fmt.Sprintf("Usuário com e-mail %s não encontrado.", email))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por e-mail no DB.", err)
		return domain.User{}, errors.NewDBError("Falha ao buscar usuário", err)
	}
	return user, nil
}

// FindByID busca um usuário pelo ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, email, password_hash, role, created_at, updated_at
        FROM users
        WHERE id = $1`

	var user domain.User
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.User{}, errors.NewNotFoundError(fmt.Sprintf("Usuário %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por ID no DB.", err)
		return domain.User{}, errors.NewDBError("Falha ao buscar usuário", err)
	}
	return user, nil
}
