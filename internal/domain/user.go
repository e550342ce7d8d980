package domain

import (
	"context"
	"time"
)

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

// Conjunto de capacidades reconhecido pela Política de Aprovação.
const (
	RoleAdmin     UserRole = "admin"
	RoleManager   UserRole = "manager"
	RoleOperator  UserRole = "operator"  // Operador designado de armazém (escopo por armazém)
	RoleRequester UserRole = "requester" // Só pode ver/cancelar as próprias requisições
)

// Actor é a identidade resolvida por chamada, fornecida pelo provedor de sessão
// (token JWT): quem está agindo, com qual papel e sobre quais armazéns.
type Actor struct {
	ID                   string
	Role                 UserRole
	WarehouseAssignments []string
}

// AssignedTo informa se o ator é operador designado do armazém dado.
func (a Actor) AssignedTo(warehouseID string) bool {
	for _, w := range a.WarehouseAssignments {
		if w == warehouseID {
			return true
		}
	}
	return false
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

// UserRepository define o contrato de persistência para a entidade User.
type UserRepository interface {
	Save(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}
