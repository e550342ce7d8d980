package domain

import "time"

// Inventory representa a quantidade em mãos de um item em um armazém.
// É a única fonte de verdade para quantidades: todos os demais componentes
// apenas leem; somente o Stock Ledger (inventoryrepo) escreve.
// Inclui uma coluna 'version' para controle de concorrência otimista.
type Inventory struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"item_id"`
	WarehouseID string    `json:"warehouse_id"`
	OnHandQty   int       `json:"on_hand_qty"`
	Version     int       `json:"version"` // Para Controle de Concorrência Otimista (OCC)
	UpdatedAt   time.Time `json:"updated_at"`
}

// CheckInRequest é o payload esperado para um recebimento externo de estoque.
// Check-in é, junto com o descarte, a única operação que altera o total
// de um item somado entre todos os armazéns.
type CheckInRequest struct {
	ItemID      string `json:"item_id" validate:"required,uuid"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	Qty         int    `json:"qty" validate:"required,numeric"`
}
