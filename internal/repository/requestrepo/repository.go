package requestrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// RequestRepository persiste Requisições, suas linhas e as notificações de
// transferência geradas na submissão. Não toca em on_hand_qty: mutações de
// quantidade são exclusivas do Stock Ledger (inventoryrepo).
type RequestRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewRequestRepository cria e retorna uma nova instância do Repositório de Requisições.
func NewRequestRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *RequestRepository {
	return &RequestRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Create persiste a Requisição, suas linhas e as notificações derivadas em
// UMA transação: ou a submissão inteira existe, ou nada existe. O status da
// Requisição nasce consistente com seus filhos (invariante de derivação).
func (r *RequestRepository) Create(ctx context.Context, req domain.Request, notifications []domain.TransferNotification) (domain.Request, error) {
	r.logger.Debug("Iniciando criação de requisição no repositório.", map[string]interface{}{
		"code": req.Code, "lines": len(req.Lines), "notifications": len(notifications),
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	const requestSQL = `
        INSERT INTO requests (id, code, origin_warehouse_id, requester_id, priority, status, submitted_at, resolved_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := tx.ExecContext(ctxTimeout, requestSQL,
		req.ID, req.Code, req.OriginWarehouseID, req.RequesterID,
		req.Priority, req.Status, req.SubmittedAt, req.ResolvedAt,
	); err != nil {
		r.logger.Error("Falha ao inserir requisição no DB.", err)
		return domain.Request{}, errors.NewDBError("Falha ao criar requisição", err)
	}

	const lineSQL = `
        INSERT INTO request_lines (id, request_id, item_id, requested_qty, outcome)
        VALUES ($1, $2, $3, $4, $5)`

	for _, line := range req.Lines {
		if _, err := tx.ExecContext(ctxTimeout, lineSQL,
			line.ID, line.RequestID, line.ItemID, line.RequestedQty, line.Outcome,
		); err != nil {
			r.logger.Error("Falha ao inserir linha de requisição no DB.", err)
			return domain.Request{}, errors.NewDBError("Falha ao criar linha de requisição", err)
		}
	}

	const notificationSQL = `
        INSERT INTO transfer_notifications
            (id, request_id, request_line_id, item_id, source_warehouse_id,
             required_qty, available_qty_at_source, status, escalated, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for _, n := range notifications {
		if _, err := tx.ExecContext(ctxTimeout, notificationSQL,
			n.ID, n.RequestID, n.RequestLineID, n.ItemID, n.SourceWarehouseID,
			n.RequiredQty, n.AvailableQtyAtSource, n.Status, n.Escalated, n.Notes, n.CreatedAt,
		); err != nil {
			r.logger.Error("Falha ao inserir notificação de transferência no DB.", err)
			return domain.Request{}, errors.NewDBError("Falha ao criar notificação de transferência", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Requisição criada com sucesso.", map[string]interface{}{"id": req.ID, "code": req.Code, "status": req.Status})
	return req, nil
}

// FindByID busca uma Requisição pelo ID, com suas linhas.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (domain.Request, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, code, origin_warehouse_id, requester_id, priority, status, submitted_at, resolved_at
        FROM requests
        WHERE id = $1`

	var req domain.Request
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&req.ID, &req.Code, &req.OriginWarehouseID, &req.RequesterID,
		&req.Priority, &req.Status, &req.SubmittedAt, &req.ResolvedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Request{}, errors.NewNotFoundError(fmt.Sprintf("Requisição %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar requisição no DB.", err)
		return domain.Request{}, errors.NewDBError("Falha ao buscar requisição", err)
	}

	lines, err := r.findLines(ctxTimeout, id)
	if err != nil {
		return domain.Request{}, err
	}
	req.Lines = lines

	return req, nil
}

// FindAll lista Requisições segundo o filtro, com paginação.
func (r *RequestRepository) FindAll(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, code, origin_warehouse_id, requester_id, priority, status, submitted_at, resolved_at
        FROM requests
        WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Priority != "" {
		query += fmt.Sprintf(" AND priority = $%d", argPos)
		args = append(args, filter.Priority)
		argPos++
	}
	if filter.OriginWarehouseID != "" {
		query += fmt.Sprintf(" AND origin_warehouse_id = $%d", argPos)
		args = append(args, filter.OriginWarehouseID)
		argPos++
	}
	if filter.RequesterID != "" {
		query += fmt.Sprintf(" AND requester_id = $%d", argPos)
		args = append(args, filter.RequesterID)
		argPos++
	}

	query += " ORDER BY submitted_at DESC"

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
		r.logger.Error("Falha ao listar requisições no DB.", err)
		return nil, errors.NewDBError("Falha ao listar requisições", err)
	}
	defer rows.Close()

	var requests []domain.Request
	for rows.Next() {
		var req domain.Request
		if err := rows.Scan(
			&req.ID, &req.Code, &req.OriginWarehouseID, &req.RequesterID,
			&req.Priority, &req.Status, &req.SubmittedAt, &req.ResolvedAt,
		); err != nil {
			return nil, errors.NewDBError("Falha ao ler requisição", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatus grava uma transição de status com guarda no estado de origem:
// se outra operação mudou o status no meio tempo, zero linhas são afetadas e
// a transição falha com InvalidTransitionError em vez de sobrescrever.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (domain.Request, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var resolvedAt interface{}
	if to.IsTerminal() {
		resolvedAt = time.Now().UTC()
	}

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE requests SET status = $1, resolved_at = COALESCE($2, resolved_at) WHERE id = $3 AND status = $4`,
		to, resolvedAt, id, from,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar status da requisição no DB.", err)
		return domain.Request{}, errors.NewDBError("Falha ao atualizar status da requisição", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Request{}, errors.NewInvalidTransitionError(
			fmt.Sprintf("Requisição %s não está mais em '%s'.", id, from))
	}

	return r.FindByID(ctx, id)
}

// Cancel cancela a Requisição e, em cascata e na mesma transação, toda
// notificação de transferência ainda pendente gerada por ela.
func (r *RequestRepository) Cancel(ctx context.Context, id string) (domain.Request, error) {
	r.logger.Debug("Iniciando cancelamento de requisição no repositório.", map[string]interface{}{"request_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	query := `
        SELECT id, code, origin_warehouse_id, requester_id, priority, status, submitted_at, resolved_at
        FROM requests
        WHERE id = $1 FOR UPDATE`

	var req domain.Request
	err = tx.QueryRowContext(ctxTimeout, query, id).Scan(
		&req.ID, &req.Code, &req.OriginWarehouseID, &req.RequesterID,
		&req.Priority, &req.Status, &req.SubmittedAt, &req.ResolvedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Request{}, errors.NewNotFoundError(fmt.Sprintf("Requisição %s não encontrada.", id))
	}
	if err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao bloquear requisição", err)
	}

	if !req.Status.CanTransition(domain.RequestCancelled) {
		return domain.Request{}, errors.NewInvalidTransitionError(
			fmt.Sprintf("Requisição %s não pode ser cancelada a partir de '%s'.", req.Code, req.Status))
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE requests SET status = $1, resolved_at = $2 WHERE id = $3`,
		domain.RequestCancelled, now, id,
	); err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao cancelar requisição", err)
	}

	// Cascata: notificações pendentes desta requisição são canceladas juntas.
	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE transfer_notifications SET status = $1, resolved_at = $2 WHERE request_id = $3 AND status = $4`,
		domain.NotificationCancelled, now, id, domain.NotificationPending,
	); err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao cancelar notificações pendentes", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Request{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	req.Status = domain.RequestCancelled
	req.ResolvedAt = &now
	r.logger.Info("Requisição cancelada com cascata nas notificações pendentes.", map[string]interface{}{"id": id, "code": req.Code})
	return req, nil
}

func (r *RequestRepository) findLines(ctx context.Context, requestID string) ([]domain.RequestLine, error) {
	rows, err := r.DB.QueryContext(ctx, `
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
