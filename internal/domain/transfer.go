package domain

import "time"

// NotificationStatus é o estado de uma notificação de transferência.
type NotificationStatus string

// pending -> {approved | rejected}; transferred só é alcançável a partir de approved.
// rejected é terminal.
const (
	NotificationPending     NotificationStatus = "pending"
	NotificationApproved    NotificationStatus = "approved"
	NotificationRejected    NotificationStatus = "rejected"
	NotificationTransferred NotificationStatus = "transferred"
	NotificationCancelled   NotificationStatus = "cancelled"
)

var notificationTransitions = map[NotificationStatus][]NotificationStatus{
	NotificationPending:  {NotificationApproved, NotificationRejected, NotificationCancelled},
	NotificationApproved: {NotificationTransferred},
}

// CanTransition informa se a transição de estado from -> to é permitida.
func (from NotificationStatus) CanTransition(to NotificationStatus) bool {
	for _, allowed := range notificationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransferNeed representa um déficit computado pelo Resolvedor de Suficiência.
// É efêmero: só é persistido quando materializado como TransferNotification.
type TransferNeed struct {
	RequestID              string
	RequestLineID          string
	ItemID                 string
	DestinationWarehouseID string
	SourceWarehouseID      string
	ShortfallQty           int
	AvailableQtyAtSource   int
}

// TransferNotification é uma proposta revisável por humanos de mover estoque
// de um armazém de origem para cobrir um déficit.
//
// AvailableQtyAtSource é um snapshot tirado na criação e DEVE ser revalidado
// contra o estoque vivo antes de qualquer transição para fora de pending,
// pois o estoque pode ter se movido desde o snapshot.
type TransferNotification struct {
	ID                   string             `json:"id"`
	RequestID            string             `json:"request_id"`
	RequestLineID        string             `json:"request_line_id"`
	ItemID               string             `json:"item_id"`
	SourceWarehouseID    string             `json:"source_warehouse_id"`
	RequiredQty          int                `json:"required_qty"`
	AvailableQtyAtSource int                `json:"available_qty_at_source"`
	Status               NotificationStatus `json:"status"`
	Escalated            bool               `json:"escalated"` // true quando não havia operador elegível na origem
	ResolverID           *string            `json:"resolver_id,omitempty"`
	ResolvedAt           *time.Time         `json:"resolved_at,omitempty"`
	Notes                string             `json:"notes,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
}

// NotificationDecision é a decisão do revisor humano sobre uma notificação.
type NotificationDecision string

const (
	DecisionApprove NotificationDecision = "approve"
	DecisionReject  NotificationDecision = "reject"
)

// NotificationFilter define os parâmetros de listagem de notificações.
type NotificationFilter struct {
	Page              int
	Limit             int
	Status            NotificationStatus
	SourceWarehouseID string
}

// TransferStatus é o estado de uma Transferência executada.
type TransferStatus string

// initiated -> in-transit -> received; disposed e cancelled são ramos terminais de falha.
const (
	TransferInitiated TransferStatus = "initiated"
	TransferInTransit TransferStatus = "in-transit"
	TransferReceived  TransferStatus = "received"
	TransferDisposed  TransferStatus = "disposed"
	TransferCancelled TransferStatus = "cancelled"
)

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferInitiated: {TransferInTransit, TransferCancelled},
	TransferInTransit: {TransferReceived, TransferDisposed},
}

// CanTransition informa se a transição de estado from -> to é permitida.
func (from TransferStatus) CanTransition(to TransferStatus) bool {
	for _, allowed := range transferTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transfer é o movimento executado de estoque entre dois armazéns,
// criado somente após uma TransferNotification alcançar approved.
type Transfer struct {
	ID                        string         `json:"id"`
	Code                      string         `json:"code"` // Código único legível (e.g., TRF-AB12CD34)
	SourceWarehouseID         string         `json:"source_warehouse_id"`
	DestinationWarehouseID    string         `json:"destination_warehouse_id"`
	Status                    TransferStatus `json:"status"`
	CreatedFromNotificationID *string        `json:"created_from_notification_id,omitempty"`
	CourierInfo               string         `json:"courier_info,omitempty"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`

	Lines []TransferLine `json:"lines,omitempty"`
}

// TransferLine é uma linha de item de uma Transferência (1..N por Transferência).
type TransferLine struct {
	ID         string `json:"id"`
	TransferID string `json:"transfer_id"`
	ItemID     string `json:"item_id"`
	Qty        int    `json:"qty"`
}
