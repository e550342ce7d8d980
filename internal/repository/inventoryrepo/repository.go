package inventoryrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// InventoryRepository é o Stock Ledger: o único componente autorizado a
// mutar on_hand_qty. Toda mutação acontece dentro de uma transação com
// SELECT ... FOR UPDATE nas linhas (item, armazém) afetadas, mais coluna
// 'version' para controle de concorrência otimista. Operações concorrentes
// sobre pares disjuntos seguem independentes; sobre o mesmo par, o perdedor
// da corrida observa a re-checagem de quantidade viva falhar.
type InventoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewInventoryRepository cria e retorna uma nova instância do Stock Ledger.
func NewInventoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *InventoryRepository {
	return &InventoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// GetOnHand busca o registro de inventário de um item em um armazém.
func (r *InventoryRepository) GetOnHand(ctx context.Context, itemID, warehouseID string) (domain.Inventory, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, item_id, warehouse_id, on_hand_qty, version, updated_at
        FROM inventory
        WHERE item_id = $1 AND warehouse_id = $2`

	var inv domain.Inventory
	err := r.DB.QueryRowContext(ctxTimeout, query, itemID, warehouseID).Scan(
		&inv.ID, &inv.ItemID, &inv.WarehouseID, &inv.OnHandQty, &inv.Version, &inv.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Inventory{}, errors.NewNotFoundError(fmt.Sprintf("Inventário do item %s no armazém %s não encontrado.", itemID, warehouseID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar inventário no DB.", err)
		return domain.Inventory{}, errors.NewDBError("Falha ao buscar inventário", err)
	}

	return inv, nil
}

// ListHoldings lista os armazéns que possuem o item, ordenados por
// (on_hand_qty DESC, warehouse_id ASC). A ordenação é um contrato testável
// do Resolvedor de Suficiência: o desempate por id garante determinismo.
func (r *InventoryRepository) ListHoldings(ctx context.Context, itemID string) ([]domain.Inventory, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT i.id, i.item_id, i.warehouse_id, i.on_hand_qty, i.version, i.updated_at
        FROM inventory i
        JOIN warehouses w ON w.id = i.warehouse_id
        WHERE i.item_id = $1 AND i.on_hand_qty > 0 AND w.is_active = TRUE
        ORDER BY i.on_hand_qty DESC, i.warehouse_id ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, itemID)
	if err != nil {
		r.logger.Error("Falha ao listar inventário por item no DB.", err)
		return nil, errors.NewDBError("Falha ao listar inventário por item", err)
	}
	defer rows.Close()

	var holdings []domain.Inventory
	for rows.Next() {
		var inv domain.Inventory
		if err := rows.Scan(&inv.ID, &inv.ItemID, &inv.WarehouseID, &inv.OnHandQty, &inv.Version, &inv.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler linha de inventário", err)
		}
		holdings = append(holdings, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar inventário", err)
	}

	return holdings, nil
}

// CheckIn registra um recebimento externo de estoque (entrada no armazém).
// Única operação, junto com o descarte, que altera o total do item somado
// entre todos os armazéns.
func (r *InventoryRepository) CheckIn(ctx context.Context, checkIn domain.CheckInRequest) (domain.Inventory, error) {
	r.logger.Debug("Iniciando check-in de estoque no repositório.", map[string]interface{}{
		"item_id":      checkIn.ItemID,
		"warehouse_id": checkIn.WarehouseID,
		"qty":          checkIn.Qty,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Inventory{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	inv, found, err := lockInventoryRow(ctxTimeout, tx, checkIn.ItemID, checkIn.WarehouseID)
	if err != nil {
		r.logger.Error("Falha ao selecionar inventário para check-in.", err)
		return domain.Inventory{}, errors.NewDBError("Falha ao buscar inventário para check-in", err)
	}

	if !found {
		newInv := domain.Inventory{
			ID:          uuid.New().String(),
			ItemID:      checkIn.ItemID,
			WarehouseID: checkIn.WarehouseID,
			OnHandQty:   checkIn.Qty,
			Version:     1,
			UpdatedAt:   time.Now().UTC(),
		}

		queryInsert := `
            INSERT INTO inventory (id, item_id, warehouse_id, on_hand_qty, version, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)`

		if _, err := tx.ExecContext(ctxTimeout, queryInsert,
			newInv.ID, newInv.ItemID, newInv.WarehouseID, newInv.OnHandQty, newInv.Version, newInv.UpdatedAt,
		); err != nil {
			r.logger.Error("Falha ao inserir novo registro de inventário.", err)
			return domain.Inventory{}, errors.NewDBError("Falha ao inserir inventário", err)
		}

		if err := tx.Commit(); err != nil {
			return domain.Inventory{}, errors.NewDBError("Falha ao commitar transação", err)
		}
		r.logger.Info("Novo registro de inventário criado via check-in.", map[string]interface{}{
			"item_id": newInv.ItemID, "warehouse_id": newInv.WarehouseID, "on_hand_qty": newInv.OnHandQty,
		})
		return newInv, nil
	}

	if err := adjustInventoryRow(ctxTimeout, tx, &inv, checkIn.Qty); err != nil {
		return domain.Inventory{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Inventory{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Check-in de estoque aplicado com sucesso.", map[string]interface{}{
		"item_id": inv.ItemID, "warehouse_id": inv.WarehouseID, "on_hand_qty": inv.OnHandQty, "version": inv.Version,
	})
	return inv, nil
}

// FulfillRequest debita as linhas localmente satisfeitas e grava o status
// fulfilled na MESMA transação: uma queda entre o débito e a escrita de
// status nunca deixa uma requisição parcialmente atendida já fechada.
func (r *InventoryRepository) FulfillRequest(ctx context.Context, requestID string) (domain.Request, error) {
	r.logger.Debug("Iniciando fulfillment de requisição no ledger.", map[string]interface{}{"request_id": requestID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	req, err := lockRequestRow(ctxTimeout, tx, requestID)
	if err != nil {
		return domain.Request{}, err
	}

	if !req.Status.CanTransition(domain.RequestFulfilled) {
		return domain.Request{}, errors.NewInvalidTransitionError(
			fmt.Sprintf("Requisição %s não pode ir de '%s' para 'fulfilled'.", req.Code, req.Status))
	}

	lines, err := loadRequestLines(ctxTimeout, tx, requestID)
	if err != nil {
		return domain.Request{}, err
	}

	// Só requisições cujas linhas são todas localmente satisfeitas podem ser
	// atendidas por este caminho; linhas com transferência pendente fecham
	// via recebimento da Transferência (ReceiveTransfer).
	for _, line := range lines {
		if line.Outcome != domain.OutcomeLocalSufficient {
			return domain.Request{}, errors.NewInvalidTransitionError(
				fmt.Sprintf("Requisição %s tem linha '%s' não satisfeita localmente.", req.Code, line.Outcome))
		}
	}

	if err := debitLines(ctxTimeout, tx, lines, req.OriginWarehouseID); err != nil {
		return domain.Request{}, err
	}

	now := time.Now().UTC()
	if err := finalizeRequest(ctxTimeout, tx, requestID, domain.RequestFulfilled, now); err != nil {
		return domain.Request{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	req.Status = domain.RequestFulfilled
	req.ResolvedAt = &now
	req.Lines = lines
	r.logger.Info("Requisição atendida e estoque debitado atomicamente.", map[string]interface{}{
		"request_id": requestID, "code": req.Code,
	})
	return req, nil
}

// ReceiveResult agrega o que o serviço precisa saber após o recebimento para
// emitir eventos e notificações fora da transação.
type ReceiveResult struct {
	Transfer         domain.Transfer
	NotificationID   string
	RequestID        string
	RequesterID      string
	RequestFulfilled bool
}

// ReceiveTransfer é o único ponto onde uma Transferência muta o Stock Ledger.
// Em uma única transação: debita a origem por cada linha (falhando tudo com
// InsufficientStockError se qualquer quantidade viva caiu abaixo da linha —
// nunca há débito parcial), credita o destino, vira a Transferência para
// received, a notificação de origem para transferred e re-avalia a Requisição
// pai (se todas as linhas estão satisfeitas, vira fulfilled, debitando as
// linhas locais junto). Uma Transferência entre armazéns preserva o total do
// item somado entre armazéns: cada débito tem um crédito igual.
func (r *InventoryRepository) ReceiveTransfer(ctx context.Context, transferID string) (ReceiveResult, error) {
	r.logger.Debug("Iniciando recebimento de transferência no ledger.", map[string]interface{}{"transfer_id": transferID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return ReceiveResult{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	transfer, err := lockTransferRow(ctxTimeout, tx, transferID)
	if err != nil {
		return ReceiveResult{}, err
	}

	// Um segundo markReceived sobre a mesma Transferência cai aqui:
	// o ledger é mutado exatamente uma vez.
	if !transfer.Status.CanTransition(domain.TransferReceived) {
		return ReceiveResult{}, errors.NewInvalidTransitionError(
			fmt.Sprintf("Transferência %s não pode ir de '%s' para 'received'.", transfer.Code, transfer.Status))
	}

	lines, err := loadTransferLines(ctxTimeout, tx, transferID)
	if err != nil {
		return ReceiveResult{}, err
	}
	transfer.Lines = lines

	// 1. Débito na origem — re-checagem de quantidade viva linha a linha.
	for _, line := range lines {
		inv, found, err := lockInventoryRow(ctxTimeout, tx, line.ItemID, transfer.SourceWarehouseID)
		if err != nil {
			return ReceiveResult{}, errors.NewDBError("Falha ao bloquear inventário de origem", err)
		}
		if !found || inv.OnHandQty < line.Qty {
			have := 0
			if found {
				have = inv.OnHandQty
			}
			return ReceiveResult{}, errors.NewInsufficientStockError(
				fmt.Sprintf("Origem %s tem %d do item %s; transferência exige %d.",
					transfer.SourceWarehouseID, have, line.ItemID, line.Qty))
		}
		if err := adjustInventoryRow(ctxTimeout, tx, &inv, -line.Qty); err != nil {
			return ReceiveResult{}, err
		}
	}

	// 2. Crédito no destino — mesma quantidade, mesmo item.
	for _, line := range lines {
		if err := creditInventoryRow(ctxTimeout, tx, line.ItemID, transfer.DestinationWarehouseID, line.Qty); err != nil {
			return ReceiveResult{}, err
		}
	}

	// 3. Transferência -> received.
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE transfers SET status = $1, updated_at = $2 WHERE id = $3`,
		domain.TransferReceived, now, transferID,
	); err != nil {
		return ReceiveResult{}, errors.NewDBError("Falha ao atualizar status da transferência", err)
	}
	transfer.Status = domain.TransferReceived
	transfer.UpdatedAt = now

	result := ReceiveResult{Transfer: transfer}

	// 4. Notificação de origem -> transferred e re-avaliação da Requisição pai.
	if transfer.CreatedFromNotificationID != nil {
		notificationID := *transfer.CreatedFromNotificationID
		result.NotificationID = notificationID

		var requestID string
		err := tx.QueryRowContext(ctxTimeout, `
            UPDATE transfer_notifications
            SET status = $1, resolved_at = $2
            WHERE id = $3 AND status = $4
            RETURNING request_id`,
			domain.NotificationTransferred, now, notificationID, domain.NotificationApproved,
		).Scan(&requestID)
		if err == sql.ErrNoRows {
			return ReceiveResult{}, errors.NewInvalidTransitionError(
				fmt.Sprintf("Notificação %s não está 'approved'; transferência não pode ser recebida.", notificationID))
		}
		if err != nil {
			return ReceiveResult{}, errors.NewDBError("Falha ao atualizar notificação de transferência", err)
		}
		result.RequestID = requestID

		fulfilled, requesterID, err := r.settleRequestIfComplete(ctxTimeout, tx, requestID, now)
		if err != nil {
			return ReceiveResult{}, err
		}
		result.RequestFulfilled = fulfilled
		result.RequesterID = requesterID
	}

	if err := tx.Commit(); err != nil {
		return ReceiveResult{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Transferência recebida; débito e crédito aplicados atomicamente.", map[string]interface{}{
		"transfer_id": transferID,
		"source":      transfer.SourceWarehouseID,
		"destination": transfer.DestinationWarehouseID,
		"request_fulfilled": result.RequestFulfilled,
	})
	return result, nil
}

// settleRequestIfComplete verifica, dentro da transação de recebimento, se
// todas as linhas da Requisição pai estão satisfeitas. Em caso afirmativo,
// debita as linhas localmente satisfeitas no destino e grava fulfilled.
// O status da Requisição permanece sempre derivável dos filhos (invariante).
func (r *InventoryRepository) settleRequestIfComplete(ctx context.Context, tx *sql.Tx, requestID string, now time.Time) (bool, string, error) {
	req, err := lockRequestRow(ctx, tx, requestID)
	if err != nil {
		return false, "", err
	}
	if req.Status.IsTerminal() {
		return false, req.RequesterID, nil
	}

	// Alguma linha transferível ainda sem notificação 'transferred'?
	var pendingCount int
	err = tx.QueryRowContext(ctx, `
        SELECT COUNT(*)
        FROM request_lines rl
        WHERE rl.request_id = $1
          AND rl.outcome = $2
          AND NOT EXISTS (
              SELECT 1 FROM transfer_notifications tn
              WHERE tn.request_line_id = rl.id AND tn.status = $3
          )`,
		requestID, domain.OutcomeTransferable, domain.NotificationTransferred,
	).Scan(&pendingCount)
	if err != nil {
		return false, "", errors.NewDBError("Falha ao verificar linhas pendentes da requisição", err)
	}
	if pendingCount > 0 {
		return false, req.RequesterID, nil
	}

	lines, err := loadRequestLines(ctx, tx, requestID)
	if err != nil {
		return false, "", err
	}

	var localLines []domain.RequestLine
	for _, line := range lines {
		if line.Outcome == domain.OutcomeLocalSufficient {
			localLines = append(localLines, line)
		}
	}
	if err := debitLines(ctx, tx, localLines, req.OriginWarehouseID); err != nil {
		return false, "", err
	}

	if err := finalizeRequest(ctx, tx, requestID, domain.RequestFulfilled, now); err != nil {
		return false, "", err
	}
	return true, req.RequesterID, nil
}

// --- Helpers internos de transação ---

// lockInventoryRow seleciona a linha de inventário com FOR UPDATE,
// serializando escritores concorrentes do mesmo par (item, armazém).
func lockInventoryRow(ctx context.Context, tx *sql.Tx, itemID, warehouseID string) (domain.Inventory, bool, error) {
	query := `
        SELECT id, item_id, warehouse_id, on_hand_qty, version, updated_at
        FROM inventory
        WHERE item_id = $1 AND warehouse_id = $2 FOR UPDATE`

	var inv domain.Inventory
	err := tx.QueryRowContext(ctx, query, itemID, warehouseID).Scan(
		&inv.ID, &inv.ItemID, &inv.WarehouseID, &inv.OnHandQty, &inv.Version, &inv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Inventory{}, false, nil
	}
	if err != nil {
		return domain.Inventory{}, false, err
	}
	return inv, true, nil
}

// adjustInventoryRow aplica um delta (positivo ou negativo) à linha já
// bloqueada, com checagem de OCC pela coluna version. on_hand_qty nunca
// fica negativo: o chamador valida antes, e o CHECK do schema é a última linha de defesa.
func adjustInventoryRow(ctx context.Context, tx *sql.Tx, inv *domain.Inventory, delta int) error {
	newQty := inv.OnHandQty + delta
	if newQty < 0 {
		return errors.NewInsufficientStockError(
			fmt.Sprintf("Ajuste de %d deixaria o item %s negativo no armazém %s.", delta, inv.ItemID, inv.WarehouseID))
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
        UPDATE inventory
        SET on_hand_qty = $1, version = $2, updated_at = $3
        WHERE id = $4 AND version = $5`,
		newQty, inv.Version+1, now, inv.ID, inv.Version,
	)
	if err != nil {
		return errors.NewDBError("Falha ao atualizar inventário", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		// A linha está bloqueada por FOR UPDATE, então isto indica um bug,
		// não uma corrida; ainda assim tratamos como conflito OCC.
		return errors.NewConflictError("O inventário foi modificado por outra operação. Tente novamente.")
	}

	inv.OnHandQty = newQty
	inv.Version++
	inv.UpdatedAt = now
	return nil
}

// creditInventoryRow soma qty ao destino, criando a linha se não existir.
func creditInventoryRow(ctx context.Context, tx *sql.Tx, itemID, warehouseID string, qty int) error {
	inv, found, err := lockInventoryRow(ctx, tx, itemID, warehouseID)
	if err != nil {
		return errors.NewDBError("Falha ao bloquear inventário de destino", err)
	}

	if !found {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO inventory (id, item_id, warehouse_id, on_hand_qty, version, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New().String(), itemID, warehouseID, qty, 1, time.Now().UTC(),
		)
		if err != nil {
			return errors.NewDBError("Falha ao inserir inventário de destino", err)
		}
		return nil
	}

	return adjustInventoryRow(ctx, tx, &inv, qty)
}

// debitLines debita cada linha da requisição no armazém informado, falhando
// a operação inteira se qualquer quantidade viva for insuficiente.
func debitLines(ctx context.Context, tx *sql.Tx, lines []domain.RequestLine, warehouseID string) error {
	for _, line := range lines {
		inv, found, err := lockInventoryRow(ctx, tx, line.ItemID, warehouseID)
		if err != nil {
			return errors.NewDBError("Falha ao bloquear inventário para débito", err)
		}
		if !found || inv.OnHandQty < line.RequestedQty {
			have := 0
			if found {
				have = inv.OnHandQty
			}
			return errors.NewInsufficientStockError(
				fmt.Sprintf("Armazém %s tem %d do item %s; linha exige %d.", warehouseID, have, line.ItemID, line.RequestedQty))
		}
		if err := adjustInventoryRow(ctx, tx, &inv, -line.RequestedQty); err != nil {
			return err
		}
	}
	return nil
}

func lockRequestRow(ctx context.Context, tx *sql.Tx, requestID string) (domain.Request, error) {
	query := `
        SELECT id, code, origin_warehouse_id, requester_id, priority, status, submitted_at, resolved_at
        FROM requests
        WHERE id = $1 FOR UPDATE`

	var req domain.Request
	err := tx.QueryRowContext(ctx, query, requestID).Scan(
		&req.ID, &req.Code, &req.OriginWarehouseID, &req.RequesterID, &req.Priority,
		&req.Status, &req.SubmittedAt, &req.ResolvedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Request{}, errors.NewNotFoundError(fmt.Sprintf("Requisição %s não encontrada.", requestID))
	}
	if err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao bloquear requisição", err)
	}
	return req, nil
}

func lockTransferRow(ctx context.Context, tx *sql.Tx, transferID string) (domain.Transfer, error) {
	query := `
        SELECT id, code, source_warehouse_id, destination_warehouse_id, status,
               created_from_notification_id, courier_info, created_at, updated_at
        FROM transfers
        WHERE id = $1 FOR UPDATE`

	var t domain.Transfer
	var courier sql.NullString
	err := tx.QueryRowContext(ctx, query, transferID).Scan(
		&t.ID, &t.Code, &t.SourceWarehouseID, &t.DestinationWarehouseID, &t.Status,
		&t.CreatedFromNotificationID, &courier, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Transfer{}, errors.NewNotFoundError(fmt.Sprintf("Transferência %s não encontrada.", transferID))
	}
	if err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao bloquear transferência", err)
	}
	if courier.Valid {
		t.CourierInfo = courier.String
	}
	return t, nil
}

func loadRequestLines(ctx context.Context, tx *sql.Tx, requestID string) ([]domain.RequestLine, error) {
	rows, err := tx.QueryContext(ctx, `
        SELECT id, request_id, item_id, requested_qty, outcome
        FROM request_lines
        WHERE request_id = $1
        ORDER BY id`, requestID)
	if err != nil {
		return nil, errors.NewDBError("Falha ao carregar linhas da requisição", err)
	}
	defer rows.Close()

	var lines []domain.RequestLine
	for rows.Next() {
		var line domain.RequestLine
		if err := rows.Scan(&line.ID, &line.RequestID, &line.ItemID, &line.RequestedQty, &line.Outcome); err != nil {
			return nil, errors.NewDBError("Falha ao ler linha da requisição", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func loadTransferLines(ctx context.Context, tx *sql.Tx, transferID string) ([]domain.TransferLine, error) {
	rows, err := tx.QueryContext(ctx, `
        SELECT id, transfer_id, item_id, qty
        FROM transfer_lines
        WHERE transfer_id = $1
        ORDER BY id`, transferID)
	if err != nil {
		return nil, errors.NewDBError("Falha ao carregar linhas da transferência", err)
	}
	defer rows.Close()

	var lines []domain.TransferLine
	for rows.Next() {
		var line domain.TransferLine
		if err := rows.Scan(&line.ID, &line.TransferID, &line.ItemID, &line.Qty); err != nil {
			return nil, errors.NewDBError("Falha ao ler linha da transferência", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func finalizeRequest(ctx context.Context, tx *sql.Tx, requestID string, status domain.RequestStatus, now time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = $1, resolved_at = $2 WHERE id = $3`,
		status, now, requestID,
	); err != nil {
		return errors.NewDBError("Falha ao atualizar status da requisição", err)
	}
	return nil
}
