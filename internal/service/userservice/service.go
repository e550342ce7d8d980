package userservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/token"
)

// AssignmentReader fornece as designações de operador do usuário, para que o
// login embuta os armazéns no token e a autorização decida sem nova consulta.
type AssignmentReader interface {
	ListAssignmentsForUser(ctx context.Context, userID string) ([]string, error)
}

// Service encapsula as regras de negócio de registro e autenticação.
type Service struct {
	repo        domain.UserRepository
	assignments AssignmentReader
	tokens      token.TokenService
	logger      logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Usuários.
func NewService(repo domain.UserRepository, assignments AssignmentReader, tokens token.TokenService, logger logger.Logger) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		tokens:      tokens,
		logger:      logger,
	}
}

// Register valida e registra um novo usuário, guardando apenas o hash bcrypt
// da senha.
func (s *Service) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	s.logger.Debug("Iniciando registro de usuário no serviço.", map[string]interface{}{"email": registration.Email})

	email := strings.TrimSpace(strings.ToLower(registration.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, apperror.NewValidationError("E-mail inválido.")
	}
	if len(registration.Password) < 8 {
		return domain.User{}, apperror.NewValidationError("A senha deve ter pelo menos 8 caracteres.")
	}
	if !validRole(registration.Role) {
		return domain.User{}, apperror.NewValidationError("Papel deve ser 'admin', 'manager', 'operator' ou 'requester'.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da senha.", err)
		return domain.User{}, apperror.NewInternalError("Falha ao processar a senha.", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         registration.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Save(ctx, user)
	if err != nil {
		s.logger.Error("Falha ao salvar usuário no repositório.", err)
		return domain.User{}, err
	}

	s.logger.Info("Usuário registrado com sucesso.", map[string]interface{}{"id": created.ID, "role": created.Role})
	return created, nil
}

// Login autentica o usuário e emite um JWT com papel e designações de armazém.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	s.logger.Debug("Iniciando login no serviço.", map[string]interface{}{"email": email})

	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		// Não revela se o e-mail existe.
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	var warehouses []string
	if user.Role == domain.RoleOperator {
		warehouses, err = s.assignments.ListAssignmentsForUser(ctx, user.ID)
		if err != nil {
			s.logger.Error("Falha ao listar designações do operador.", err)
			return "", err
		}
	}

	signed, err := s.tokens.GenerateToken(user.ID, string(user.Role), warehouses)
	if err != nil {
		s.logger.Error("Falha ao gerar token JWT.", err)
		return "", apperror.NewInternalError("Falha ao gerar token.", err)
	}

	s.logger.Info("Login efetuado com sucesso.", map[string]interface{}{"user_id": user.ID})
	return signed, nil
}

// GetByID busca um usuário pelo ID.
func (s *Service) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func validRole(role domain.UserRole) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleOperator, domain.RoleRequester:
		return true
	}
	return false
}
