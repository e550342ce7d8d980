package sufficiency

import (
	"context"
	"errors"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
)

// LedgerReader é a visão somente-leitura do Stock Ledger que o resolvedor usa.
type LedgerReader interface {
	GetOnHand(ctx context.Context, itemID, warehouseID string) (domain.Inventory, error)
	// ListHoldings retorna os armazéns ativos que possuem o item, ordenados
	// por (on_hand_qty DESC, warehouse_id ASC) — contrato de determinismo.
	ListHoldings(ctx context.Context, itemID string) ([]domain.Inventory, error)
}

// Outcome é o veredito do resolvedor para uma linha de requisição.
type Outcome struct {
	Kind                 domain.LineOutcome
	ShortfallQty         int
	SourceWarehouseID    string // preenchido apenas quando Kind == transferable
	AvailableQtyAtSource int    // snapshot no momento da resolução
}

// Resolver é a função de decisão de suficiência: nenhum efeito colateral
// sobre o Stock Ledger, apenas leituras.
type Resolver struct {
	ledger LedgerReader
}

// NewResolver cria um Resolvedor de Suficiência sobre a visão de ledger dada.
func NewResolver(ledger LedgerReader) *Resolver {
	return &Resolver{ledger: ledger}
}

// ResolveLine decide o destino de uma linha:
//  1. estoque local cobre a quantidade -> local-sufficient;
//  2. senão, o primeiro armazém (na ordem do contrato) cujo estoque cobre o
//     déficit INTEIRO -> transferable com essa origem;
//  3. nenhum armazém cobre o déficit inteiro sozinho -> unresolvable.
//
// O déficit nunca é dividido entre múltiplas origens: decisão explícita de
// projeto, e os chamadores não devem assumir transferências parciais.
func (r *Resolver) ResolveLine(ctx context.Context, line domain.RequestLine, destinationWarehouseID string) (Outcome, error) {
	onHand := 0
	inv, err := r.ledger.GetOnHand(ctx, line.ItemID, destinationWarehouseID)
	if err != nil {
		var notFound *apperror.NotFoundError
		if !errors.As(err, &notFound) {
			return Outcome{}, err
		}
		// Sem registro de inventário = zero em mãos.
	} else {
		onHand = inv.OnHandQty
	}

	if onHand >= line.RequestedQty {
		return Outcome{Kind: domain.OutcomeLocalSufficient}, nil
	}

	shortfall := line.RequestedQty - onHand

	holdings, err := r.ledger.ListHoldings(ctx, line.ItemID)
	if err != nil {
		return Outcome{}, err
	}

	for _, holding := range holdings {
		if holding.WarehouseID == destinationWarehouseID {
			continue
		}
		if holding.OnHandQty >= shortfall {
			return Outcome{
				Kind:                 domain.OutcomeTransferable,
				ShortfallQty:         shortfall,
				SourceWarehouseID:    holding.WarehouseID,
				AvailableQtyAtSource: holding.OnHandQty,
			}, nil
		}
	}

	return Outcome{Kind: domain.OutcomeUnresolvable, ShortfallQty: shortfall}, nil
}
