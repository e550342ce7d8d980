package domain

import "time"

// RequestStatus é um tipo string para representar o estado de uma Requisição.
type RequestStatus string

// Estados possíveis de uma Requisição.
// submitted é o estado inicial; fulfilled, rejected e cancelled são terminais.
const (
	RequestSubmitted       RequestStatus = "submitted"
	RequestApproved        RequestStatus = "approved"
	RequestPendingTransfer RequestStatus = "pending-transfer"
	RequestRejected        RequestStatus = "rejected"
	RequestFulfilled       RequestStatus = "fulfilled"
	RequestCancelled       RequestStatus = "cancelled"
)

// requestTransitions define o grafo de transições válidas de uma Requisição.
// Qualquer aresta fora deste mapa é uma transição ilegal.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestSubmitted:       {RequestApproved, RequestPendingTransfer, RequestRejected, RequestCancelled},
	RequestApproved:        {RequestFulfilled, RequestCancelled},
	RequestPendingTransfer: {RequestFulfilled, RequestRejected, RequestCancelled},
}

// CanTransition informa se a transição de estado from -> to é permitida.
func (from RequestStatus) CanTransition(to RequestStatus) bool {
	for _, allowed := range requestTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal informa se o estado é terminal (a Requisição não pode mais mudar).
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestFulfilled, RequestRejected, RequestCancelled:
		return true
	}
	return false
}

// RequestPriority é a prioridade declarada pelo solicitante.
type RequestPriority string

const (
	PriorityUrgent RequestPriority = "urgent"
	PriorityHigh   RequestPriority = "high"
	PriorityNormal RequestPriority = "normal"
)

// ValidPriority informa se o valor recebido é uma prioridade conhecida.
func ValidPriority(p RequestPriority) bool {
	return p == PriorityUrgent || p == PriorityHigh || p == PriorityNormal
}

// LineOutcome é o resultado da análise de suficiência de uma linha.
type LineOutcome string

const (
	// OutcomeLocalSufficient indica que o armazém de destino cobre a linha sozinho.
	OutcomeLocalSufficient LineOutcome = "local-sufficient"
	// OutcomeTransferable indica que há déficit, mas um único armazém de origem pode cobri-lo.
	OutcomeTransferable LineOutcome = "transferable"
	// OutcomeUnresolvable indica que nenhum armazém cobre o déficit inteiro.
	// Por decisão explícita de projeto, o déficit nunca é dividido entre origens.
	OutcomeUnresolvable LineOutcome = "unresolvable"
)

// Request representa um pedido de itens feito por um funcionário para um armazém de destino.
// Requisições nunca são apagadas fisicamente; estados terminais são retidos para auditoria.
type Request struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"` // Código único legível (e.g., REQ-AB12CD34)
	OriginWarehouseID string          `json:"origin_warehouse_id"`
	RequesterID       string          `json:"requester_id"`
	Priority          RequestPriority `json:"priority"`
	Status            RequestStatus   `json:"status"`
	SubmittedAt       time.Time       `json:"submitted_at"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`

	Lines []RequestLine `json:"lines,omitempty"`
}

// RequestLine é uma linha de item de uma Requisição (1..N por Requisição).
type RequestLine struct {
	ID           string      `json:"id"`
	RequestID    string      `json:"request_id"`
	ItemID       string      `json:"item_id"`
	RequestedQty int         `json:"requested_qty"`
	Outcome      LineOutcome `json:"outcome"`
}

// SubmitRequestInput é o payload esperado para submissão de uma Requisição.
type SubmitRequestInput struct {
	OriginWarehouseID string                   `json:"origin_warehouse_id"`
	Priority          RequestPriority          `json:"priority"`
	Lines             []SubmitRequestLineInput `json:"lines"`
}

// SubmitRequestLineInput é uma linha do payload de submissão.
type SubmitRequestLineInput struct {
	ItemID       string `json:"item_id"`
	RequestedQty int    `json:"requested_qty"`
}

// RequestFilter define os parâmetros de busca e paginação para listagem de Requisições.
type RequestFilter struct {
	Page              int
	Limit             int
	Status            RequestStatus
	Priority          RequestPriority
	OriginWarehouseID string
	RequesterID       string
}
