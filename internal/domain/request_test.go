package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockflow/internal/domain"
)

// TestRequestTransitions cobre o grafo de estados da Requisição: toda
// transição fora do grafo deve ser recusada, e estados terminais não têm saída.
func TestRequestTransitions(t *testing.T) {
	// Transições permitidas
	assert.True(t, domain.RequestSubmitted.CanTransition(domain.RequestApproved))
	assert.True(t, domain.RequestSubmitted.CanTransition(domain.RequestPendingTransfer))
	assert.True(t, domain.RequestSubmitted.CanTransition(domain.RequestRejected))
	assert.True(t, domain.RequestSubmitted.CanTransition(domain.RequestCancelled))
	assert.True(t, domain.RequestApproved.CanTransition(domain.RequestFulfilled))
	assert.True(t, domain.RequestApproved.CanTransition(domain.RequestCancelled))
	assert.True(t, domain.RequestPendingTransfer.CanTransition(domain.RequestFulfilled))
	assert.True(t, domain.RequestPendingTransfer.CanTransition(domain.RequestRejected))
	assert.True(t, domain.RequestPendingTransfer.CanTransition(domain.RequestCancelled))

	// Transições proibidas
	assert.False(t, domain.RequestSubmitted.CanTransition(domain.RequestFulfilled),
		"uma requisição não pode ser atendida sem passar pela aprovação")
	assert.False(t, domain.RequestPendingTransfer.CanTransition(domain.RequestApproved),
		"uma requisição com notificações pendentes não pode ser aprovada por fora")
	assert.False(t, domain.RequestApproved.CanTransition(domain.RequestRejected))
	assert.False(t, domain.RequestApproved.CanTransition(domain.RequestSubmitted))

	// Estados terminais não têm saída
	for _, terminal := range []domain.RequestStatus{
		domain.RequestFulfilled, domain.RequestRejected, domain.RequestCancelled,
	} {
		assert.True(t, terminal.IsTerminal())
		for _, to := range []domain.RequestStatus{
			domain.RequestSubmitted, domain.RequestApproved, domain.RequestPendingTransfer,
			domain.RequestFulfilled, domain.RequestRejected, domain.RequestCancelled,
		} {
			assert.False(t, terminal.CanTransition(to),
				"estado terminal %s não pode transicionar para %s", terminal, to)
		}
	}

	assert.False(t, domain.RequestSubmitted.IsTerminal())
	assert.False(t, domain.RequestPendingTransfer.IsTerminal())
}

// TestNotificationTransitions cobre o grafo da notificação de transferência.
func TestNotificationTransitions(t *testing.T) {
	assert.True(t, domain.NotificationPending.CanTransition(domain.NotificationApproved))
	assert.True(t, domain.NotificationPending.CanTransition(domain.NotificationRejected))
	assert.True(t, domain.NotificationPending.CanTransition(domain.NotificationCancelled))
	assert.True(t, domain.NotificationApproved.CanTransition(domain.NotificationTransferred))

	// Uma notificação resolvida não volta atrás
	assert.False(t, domain.NotificationApproved.CanTransition(domain.NotificationRejected))
	assert.False(t, domain.NotificationRejected.CanTransition(domain.NotificationApproved))
	assert.False(t, domain.NotificationTransferred.CanTransition(domain.NotificationPending))
	assert.False(t, domain.NotificationCancelled.CanTransition(domain.NotificationApproved))
}

// TestTransferTransitions cobre o grafo da Transferência: received só é
// alcançável a partir de in-transit.
func TestTransferTransitions(t *testing.T) {
	assert.True(t, domain.TransferInitiated.CanTransition(domain.TransferInTransit))
	assert.True(t, domain.TransferInitiated.CanTransition(domain.TransferCancelled))
	assert.True(t, domain.TransferInTransit.CanTransition(domain.TransferReceived))
	assert.True(t, domain.TransferInTransit.CanTransition(domain.TransferDisposed))

	assert.False(t, domain.TransferInitiated.CanTransition(domain.TransferReceived),
		"uma transferência não despachada não pode ser recebida")
	assert.False(t, domain.TransferInitiated.CanTransition(domain.TransferDisposed))
	assert.False(t, domain.TransferReceived.CanTransition(domain.TransferInTransit))
	assert.False(t, domain.TransferDisposed.CanTransition(domain.TransferReceived))
	assert.False(t, domain.TransferCancelled.CanTransition(domain.TransferInTransit))
}

func TestValidPriority(t *testing.T) {
	assert.True(t, domain.ValidPriority(domain.PriorityUrgent))
	assert.True(t, domain.ValidPriority(domain.PriorityHigh))
	assert.True(t, domain.ValidPriority(domain.PriorityNormal))
	assert.False(t, domain.ValidPriority(domain.RequestPriority("low")))
	assert.False(t, domain.ValidPriority(domain.RequestPriority("")))
}

func TestActorAssignedTo(t *testing.T) {
	actor := domain.Actor{
		ID:                   "u1",
		Role:                 domain.RoleOperator,
		WarehouseAssignments: []string{"wh-a", "wh-b"},
	}

	assert.True(t, actor.AssignedTo("wh-a"))
	assert.True(t, actor.AssignedTo("wh-b"))
	assert.False(t, actor.AssignedTo("wh-c"))
	assert.False(t, domain.Actor{}.AssignedTo("wh-a"))
}
