package errors

import (
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do StockFlow.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION", "NOT_FOUND", "STALE_SUFFICIENCY")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada,
// capturadas antes de qualquer escrita.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de uma entidade referenciada.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// UnauthorizedError representa falha de autenticação (token ausente/inválido).
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autenticado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// AuthorizationError representa negação pela Política de Aprovação:
// o ator é conhecido, mas não pode executar a ação solicitada.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *AuthorizationError) Category() string { return "AUTHORIZATION_ERROR" }
func (e *AuthorizationError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *AuthorizationError) Unwrap() error    { return nil }

// NewAuthorizationError cria um novo erro de autorização.
func NewAuthorizationError(msg string) AppError {
	return &AuthorizationError{Msg: msg}
}

// InvalidTransitionError representa uma aresta ilegal em um grafo de estados
// (e.g., fulfilled -> approved, ou receber a mesma Transferência duas vezes).
type InvalidTransitionError struct {
	Msg string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("Transição de estado inválida: %s", e.Msg)
}
func (e *InvalidTransitionError) Category() string { return "INVALID_TRANSITION" }
func (e *InvalidTransitionError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *InvalidTransitionError) Unwrap() error    { return nil }

// NewInvalidTransitionError cria um novo erro de transição ilegal.
func NewInvalidTransitionError(msg string) AppError {
	return &InvalidTransitionError{Msg: msg}
}

// StaleSufficiencyError indica que a quantidade viva na origem caiu abaixo do
// necessário entre o snapshot da notificação e a aprovação. É um erro esperado
// sob carga concorrente: o chamador deve acionar um humano para re-resolver,
// nunca repetir cegamente.
type StaleSufficiencyError struct {
	Msg string
}

func (e *StaleSufficiencyError) Error() string {
	return fmt.Sprintf("Suficiência desatualizada: %s", e.Msg)
}
func (e *StaleSufficiencyError) Category() string { return "STALE_SUFFICIENCY" }
func (e *StaleSufficiencyError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *StaleSufficiencyError) Unwrap() error    { return nil }

// NewStaleSufficiencyError cria um novo erro de suficiência desatualizada.
func NewStaleSufficiencyError(msg string) AppError {
	return &StaleSufficiencyError{Msg: msg}
}

// InsufficientStockError indica que a re-checagem de quantidade viva falhou no
// momento do recebimento: nenhuma linha é debitada (nunca há débito parcial).
// Também esperado sob carga concorrente.
type InsufficientStockError struct {
	Msg string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Estoque insuficiente: %s", e.Msg)
}
func (e *InsufficientStockError) Category() string { return "INSUFFICIENT_STOCK" }
func (e *InsufficientStockError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *InsufficientStockError) Unwrap() error    { return nil }

// NewInsufficientStockError cria um novo erro de estoque insuficiente.
func NewInsufficientStockError(msg string) AppError {
	return &InsufficientStockError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., OCC, recurso duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito (usado em OCC).
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	if appErr, ok := err.(AppError); ok {
		// O erro é tipado (ValidationError, StaleSufficiencyError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	// Tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
