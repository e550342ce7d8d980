package domain

import (
	"context"
	"time"
)

// Warehouse representa um armazém físico ou lógico no sistema.
type Warehouse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseOperator vincula um usuário como operador designado de um armazém.
// Operadores podem revisar notificações de transferência cuja origem seja o seu armazém.
type WarehouseOperator struct {
	WarehouseID string    `json:"warehouse_id"`
	UserID      string    `json:"user_id"`
	AssignedAt  time.Time `json:"assigned_at"`
}

// WarehouseRepository define o contrato de persistência para armazéns e seus operadores.
type WarehouseRepository interface {
	CreateWarehouse(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	GetWarehouseByID(ctx context.Context, id string) (Warehouse, error)
	GetAllWarehouses(ctx context.Context) ([]Warehouse, error)
	UpdateWarehouse(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	DeactivateWarehouse(ctx context.Context, id string) error
	AssignOperator(ctx context.Context, warehouseID, userID string) error
	ListOperators(ctx context.Context, warehouseID string) ([]WarehouseOperator, error)
	ListAssignmentsForUser(ctx context.Context, userID string) ([]string, error)
}
