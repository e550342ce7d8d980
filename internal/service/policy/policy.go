package policy

import "stockflow/internal/domain"

// Action identifica uma operação sujeita à Política de Aprovação.
type Action string

const (
	ActionViewRequest         Action = "request:view"
	ActionSubmitRequest       Action = "request:submit"
	ActionCancelRequest       Action = "request:cancel"
	ActionApproveRequest      Action = "request:approve"
	ActionResolveNotification Action = "notification:resolve"
	ActionMarkInTransit       Action = "transfer:in-transit"
	ActionMarkReceived        Action = "transfer:received"
	ActionDisposeTransfer     Action = "transfer:dispose"
	ActionCheckInStock        Action = "stock:check-in"
)

// Scope delimita sobre o quê a ação incide: o armazém afetado e, quando a
// ação é sobre uma Requisição, o dono dela.
type Scope struct {
	WarehouseID string
	OwnerID     string
}

// Policy é o predicado puro central de autorização. Concentra aqui as regras
// que antes viveriam espalhadas em checagens ad hoc de role pela camada de
// apresentação. Nunca muta estado; quem consulta decide o que fazer com o não.
type Policy struct {
	// AutoApproveMaxQty: requisições de prioridade normal com todas as
	// linhas até este limite dispensam o gate manual de aprovação.
	AutoApproveMaxQty int
}

// New cria uma Política com o limite de auto-aprovação configurado.
func New(autoApproveMaxQty int) Policy {
	return Policy{AutoApproveMaxQty: autoApproveMaxQty}
}

// CanResolve decide se o ator pode executar a ação no escopo dado.
//
// Regras:
//   - admin e manager podem tudo;
//   - operator pode ações escopadas ao(s) armazém(ns) que lhe foram designados;
//   - requester só pode submeter, ver e cancelar as PRÓPRIAS requisições.
func (p Policy) CanResolve(actor domain.Actor, action Action, scope Scope) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return true

	case domain.RoleOperator:
		switch action {
		case ActionResolveNotification, ActionMarkInTransit, ActionMarkReceived,
			ActionDisposeTransfer, ActionCheckInStock:
			return actor.AssignedTo(scope.WarehouseID)
		case ActionSubmitRequest:
			return true
		case ActionViewRequest, ActionCancelRequest:
			// Operadores se comportam como solicitantes sobre requisições
			// alheias: só as próprias.
			return scope.OwnerID == actor.ID
		}
		return false

	case domain.RoleRequester:
		switch action {
		case ActionSubmitRequest:
			return true
		case ActionViewRequest, ActionCancelRequest:
			return scope.OwnerID == actor.ID
		}
		return false
	}

	return false
}

// AutoApprove decide se a requisição dispensa o gate manual: prioridade
// normal e nenhuma linha acima do limite configurado.
func (p Policy) AutoApprove(req domain.Request) bool {
	if req.Priority != domain.PriorityNormal {
		return false
	}
	for _, line := range req.Lines {
		if line.RequestedQty > p.AutoApproveMaxQty {
			return false
		}
	}
	return true
}
