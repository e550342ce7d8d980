package domain

import (
	"context"
	"time"
)

// Item representa um item do catálogo (dado mestre).
// O motor de requisições/transferências só consulta existência e flag de ativo.
type Item struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"` // Stock Keeping Unit (código único de item)
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnitValue   float64   `json:"unit_value"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemFilter define os parâmetros de busca e paginação de itens.
type ItemFilter struct {
	Page       int
	Limit      int
	Name       string
	SKU        string
	ActiveOnly bool
}

// ItemRepository define o contrato de persistência para a entidade Item.
type ItemRepository interface {
	Save(ctx context.Context, item Item) (Item, error)
	FindByID(ctx context.Context, id string) (Item, error)
	FindAll(ctx context.Context, filter ItemFilter) ([]Item, error)
	Update(ctx context.Context, item Item) error
	Deactivate(ctx context.Context, id string) error
}
