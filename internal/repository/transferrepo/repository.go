package transferrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// TransferRepository persiste notificações de transferência e Transferências.
// A aprovação re-checa a quantidade viva na origem dentro da MESMA transação
// que cria a Transferência e vira a notificação: o padrão snapshot-e-rechecar
// vira uma única janela serializável, sem corrida entre a checagem e o flip.
// Nenhum método aqui muta on_hand_qty; isso é exclusivo do Stock Ledger.
type TransferRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTransferRepository cria e retorna uma nova instância do Repositório de Transferências.
func NewTransferRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *TransferRepository {
	return &TransferRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindNotificationByID busca uma notificação de transferência pelo ID.
func (r *TransferRepository) FindNotificationByID(ctx context.Context, id string) (domain.TransferNotification, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n domain.TransferNotification
	err := r.DB.QueryRowContext(ctxTimeout, notificationSelect+` WHERE id = $1`, id).Scan(notificationFields(&n)...)
	if err == sql.ErrNoRows {
		return domain.TransferNotification{}, errors.NewNotFoundError(fmt.Sprintf("Notificação %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar notificação no DB.", err)
		return domain.TransferNotification{}, errors.NewDBError("Falha ao buscar notificação", err)
	}
	return n, nil
}

// FindNotifications lista notificações segundo o filtro, mais recentes primeiro.
func (r *TransferRepository) FindNotifications(ctx context.Context, filter domain.NotificationFilter) ([]domain.TransferNotification, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := notificationSelect + ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.SourceWarehouseID != "" {
		query += fmt.Sprintf(" AND source_warehouse_id = $%d", argPos)
		args = append(args, filter.SourceWarehouseID)
		argPos++
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar notificações no DB.", err)
		return nil, errors.NewDBError("Falha ao listar notificações", err)
	}
	defer rows.Close()

	var notifications []domain.TransferNotification
	for rows.Next() {
		var n domain.TransferNotification
		if err := rows.Scan(notificationFields(&n)...); err != nil {
			return nil, errors.NewDBError("Falha ao ler notificação", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// Approve executa a aprovação em uma única transação:
//  1. bloqueia a notificação (deve estar pending);
//  2. re-lê a quantidade viva na origem com FOR UPDATE;
//  3. se viva < exigida, falha com StaleSufficiencyError — a notificação
//     permanece pending e o chamador deve re-resolver, nunca aprovar às cegas;
//  4. cria a Transferência (initiated) vinculada à notificação e vira a
//     notificação para approved.
func (r *TransferRepository) Approve(ctx context.Context, notificationID, resolverID, notes string) (domain.Transfer, error) {
	r.logger.Debug("Iniciando aprovação de notificação no repositório.", map[string]interface{}{
		"notification_id": notificationID, "resolver_id": resolverID,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	n, err := lockNotificationRow(ctxTimeout, tx, notificationID)
	if err != nil {
		return domain.Transfer{}, err
	}

	if !n.Status.CanTransition(domain.NotificationApproved) {
		return domain.Transfer{}, errors.NewInvalidTransitionError(
			fmt.Sprintf("Notificação %s está '%s'; só notificações pendentes podem ser aprovadas.", notificationID, n.Status))
	}

	// Re-checagem da quantidade viva: o snapshot tirado na criação pode ter
	// envelhecido — outra transferência pode ter consumido a origem.
	var liveQty int
	err = tx.QueryRowContext(ctxTimeout, `
        SELECT on_hand_qty FROM inventory
        WHERE item_id = $1 AND warehouse_id = $2 FOR UPDATE`,
		n.ItemID, n.SourceWarehouseID,
	).Scan(&liveQty)
	if err == sql.ErrNoRows {
		liveQty = 0
	} else if err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao re-ler quantidade na origem", err)
	}

	if liveQty < n.RequiredQty {
		return domain.Transfer{}, errors.NewStaleSufficiencyError(
			fmt.Sprintf("Origem %s tinha %d no snapshot, mas tem %d agora; exigido %d. Re-resolva a requisição.",
				n.SourceWarehouseID, n.AvailableQtyAtSource, liveQty, n.RequiredQty))
	}

	// Destino vem da requisição pai.
	var destinationWarehouseID string
	if err := tx.QueryRowContext(ctxTimeout,
		`SELECT origin_warehouse_id FROM requests WHERE id = $1`, n.RequestID,
	).Scan(&destinationWarehouseID); err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao buscar requisição pai", err)
	}

	now := time.Now().UTC()
	transfer := domain.Transfer{
		ID:                        uuid.New().String(),
		Code:                      NewTransferCode(),
		SourceWarehouseID:         n.SourceWarehouseID,
		DestinationWarehouseID:    destinationWarehouseID,
		Status:                    domain.TransferInitiated,
		CreatedFromNotificationID: &notificationID,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	line := domain.TransferLine{
		ID:         uuid.New().String(),
		TransferID: transfer.ID,
		ItemID:     n.ItemID,
		Qty:        n.RequiredQty,
	}
	transfer.Lines = []domain.TransferLine{line}

	if _, err := tx.ExecContext(ctxTimeout, `
        INSERT INTO transfers
            (id, code, source_warehouse_id, destination_warehouse_id, status,
             created_from_notification_id, courier_info, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		transfer.ID, transfer.Code, transfer.SourceWarehouseID, transfer.DestinationWarehouseID,
		transfer.Status, notificationID, "", now, now,
	); err != nil {
		r.logger.Error("Falha ao inserir transferência no DB.", err)
		return domain.Transfer{}, errors.NewDBError("Falha ao criar transferência", err)
	}

	if _, err := tx.ExecContext(ctxTimeout, `
        INSERT INTO transfer_lines (id, transfer_id, item_id, qty)
        VALUES ($1, $2, $3, $4)`,
		line.ID, line.TransferID, line.ItemID, line.Qty,
	); err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao criar linha de transferência", err)
	}

	if _, err := tx.ExecContext(ctxTimeout, `
        UPDATE transfer_notifications
        SET status = $1, resolver_id = $2, resolved_at = $3, notes = $4
        WHERE id = $5`,
		domain.NotificationApproved, resolverID, now, notes, notificationID,
	); err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao aprovar notificação", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Notificação aprovada; transferência criada.", map[string]interface{}{
		"notification_id": notificationID, "transfer_id": transfer.ID, "code": transfer.Code,
	})
	return transfer, nil
}

// RejectResult informa ao serviço o que a rejeição derrubou, para emissão de eventos.
type RejectResult struct {
	Notification    domain.TransferNotification
	RequestDemoted  bool
	RequestID       string
	RequesterID     string
}

// Reject vira a notificação para rejected e reverte a linha afetada para
// unresolvable. Se a requisição pai não tem mais nenhuma notificação viva
// capaz de satisfazê-la, a requisição inteira é demovida para rejected,
// tudo na mesma transação.
func (r *TransferRepository) Reject(ctx context.Context, notificationID, resolverID, notes string) (RejectResult, error) {
	r.logger.Debug("Iniciando rejeição de notificação no repositório.", map[string]interface{}{
		"notification_id": notificationID, "resolver_id": resolverID,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return RejectResult{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	n, err := lockNotificationRow(ctxTimeout, tx, notificationID)
	if err != nil {
		return RejectResult{}, err
	}

	if !n.Status.CanTransition(domain.NotificationRejected) {
		return RejectResult{}, errors.NewInvalidTransitionError(
			fmt.Sprintf("Notificação %s está '%s'; só notificações pendentes podem ser rejeitadas.", notificationID, n.Status))
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctxTimeout, `
        UPDATE transfer_notifications
        SET status = $1, resolver_id = $2, resolved_at = $3, notes = $4
        WHERE id = $5`,
		domain.NotificationRejected, resolverID, now, notes, notificationID,
	); err != nil {
		return RejectResult{}, errors.NewDBError("Falha ao rejeitar notificação", err)
	}

	// A linha afetada volta a ser insolúvel.
	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE request_lines SET outcome = $1 WHERE id = $2`,
		domain.OutcomeUnresolvable, n.RequestLineID,
	); err != nil {
		return RejectResult{}, errors.NewDBError("Falha ao reverter linha da requisição", err)
	}

	result := RejectResult{RequestID: n.RequestID}
	n.Status = domain.NotificationRejected
	n.ResolverID = &resolverID
	n.ResolvedAt = &now
	n.Notes = notes
	result.Notification = n

	// A requisição pai ainda tem alguma notificação viva (pendente ou aprovada)?
	var liveCount int
	if err := tx.QueryRowContext(ctxTimeout, `
        SELECT COUNT(*) FROM transfer_notifications
        WHERE request_id = $1 AND status IN ($2, $3)`,
		n.RequestID, domain.NotificationPending, domain.NotificationApproved,
	).Scan(&liveCount); err != nil {
		return RejectResult{}, errors.NewDBError("Falha ao contar notificações vivas", err)
	}

	if liveCount == 0 {
		var status domain.RequestStatus
		var requesterID string
		err := tx.QueryRowContext(ctxTimeout,
			`SELECT status, requester_id FROM requests WHERE id = $1 FOR UPDATE`, n.RequestID,
		).Scan(&status, &requesterID)
		if err != nil {
			return RejectResult{}, errors.NewDBError("Falha ao bloquear requisição pai", err)
		}
		result.RequesterID = requesterID

		if status.CanTransition(domain.RequestRejected) {
			if _, err := tx.ExecContext(ctxTimeout,
				`UPDATE requests SET status = $1, resolved_at = $2 WHERE id = $3`,
				domain.RequestRejected, now, n.RequestID,
			); err != nil {
				return RejectResult{}, errors.NewDBError("Falha ao demover requisição", err)
			}
			result.RequestDemoted = true
		}
	}

	if err := tx.Commit(); err != nil {
		return RejectResult{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Notificação rejeitada.", map[string]interface{}{
		"notification_id": notificationID, "request_demoted": result.RequestDemoted,
	})
	return result, nil
}

// FindTransferByID busca uma Transferência pelo ID, com suas linhas.
func (r *TransferRepository) FindTransferByID(ctx context.Context, id string) (domain.Transfer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, code, source_warehouse_id, destination_warehouse_id, status,
               created_from_notification_id, courier_info, created_at, updated_at
        FROM transfers
        WHERE id = $1`

	var t domain.Transfer
	var courier sql.NullString
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&t.ID, &t.Code, &t.SourceWarehouseID, &t.DestinationWarehouseID, &t.Status,
		&t.CreatedFromNotificationID, &courier, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Transfer{}, errors.NewNotFoundError(fmt.Sprintf("Transferência %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar transferência no DB.", err)
		return domain.Transfer{}, errors.NewDBError("Falha ao buscar transferência", err)
	}
	if courier.Valid {
		t.CourierInfo = courier.String
	}

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, transfer_id, item_id, qty
        FROM transfer_lines
        WHERE transfer_id = $1
        ORDER BY id`, id)
	if err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao carregar linhas da transferência", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.TransferLine
		if err := rows.Scan(&line.ID, &line.TransferID, &line.ItemID, &line.Qty); err != nil {
			return domain.Transfer{}, errors.NewDBError("Falha ao ler linha da transferência", err)
		}
		t.Lines = append(t.Lines, line)
	}
	return t, rows.Err()
}

// UpdateTransferStatus grava uma transição de metadados (sem efeito no ledger)
// com guarda no estado de origem. Usada para in-transit, disposed e cancelled;
// received passa pelo Stock Ledger (inventoryrepo.ReceiveTransfer).
func (r *TransferRepository) UpdateTransferStatus(ctx context.Context, id string, from, to domain.TransferStatus, courierInfo string) (domain.Transfer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE transfers SET status = $1, updated_at = $2`
	args := []interface{}{to, time.Now().UTC()}
	argPos := 3

	if courierInfo != "" {
		query += fmt.Sprintf(", courier_info = $%d", argPos)
		args = append(args, courierInfo)
		argPos++
	}
	query += fmt.Sprintf(" WHERE id = $%d AND status = $%d", argPos, argPos+1)
	args = append(args, id, from)

	result, err := r.DB.ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao atualizar status da transferência no DB.", err)
		return domain.Transfer{}, errors.NewDBError("Falha ao atualizar status da transferência", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Transfer{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Transfer{}, errors.NewInvalidTransitionError(
			fmt.Sprintf("Transferência %s não está mais em '%s'.", id, from))
	}

	return r.FindTransferByID(ctx, id)
}

// NewTransferCode gera um código legível e único para uma Transferência.
func NewTransferCode() string {
	return "TRF-" + strings.ToUpper(uuid.New().String()[:8])
}

// --- Helpers internos ---

const notificationSelect = `
    SELECT id, request_id, request_line_id, item_id, source_warehouse_id,
           required_qty, available_qty_at_source, status, escalated,
           resolver_id, resolved_at, notes, created_at
    FROM transfer_notifications`

func notificationFields(n *domain.TransferNotification) []interface{} {
	return []interface{}{
		&n.ID, &n.RequestID, &n.RequestLineID, &n.ItemID, &n.SourceWarehouseID,
		&n.RequiredQty, &n.AvailableQtyAtSource, &n.Status, &n.Escalated,
		&n.ResolverID, &n.ResolvedAt, &n.Notes, &n.CreatedAt,
	}
}

func lockNotificationRow(ctx context.Context, tx *sql.Tx, id string) (domain.TransferNotification, error) {
	var n domain.TransferNotification
	err := tx.QueryRowContext(ctx, notificationSelect+` WHERE id = $1 FOR UPDATE`, id).Scan(notificationFields(&n)...)
	if err == sql.ErrNoRows {
		return domain.TransferNotification{}, errors.NewNotFoundError(fmt.Sprintf("Notificação %s não encontrada.", id))
	}
	if err != nil {
		return domain.TransferNotification{}, errors.NewDBError("Falha ao bloquear notificação", err)
	}
	return n, nil
}
