package inventoryrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/inventoryrepo"
)

var inventoryColumns = []string{"id", "item_id", "warehouse_id", "on_hand_qty", "version", "updated_at"}

func newRepo(t *testing.T) (*inventoryrepo.InventoryRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := inventoryrepo.NewInventoryRepository(db, 2*time.Second, logger.NewLogger("debug"))
	return repo, mock
}

// TestReceiveTransfer_DebitsSourceAndCreditsDestination: o recebimento aplica,
// na mesma transação, um débito na origem e um crédito igual no destino
// (a transferência preserva o total do item somado entre armazéns), vira a
// notificação para transferred e liquida a requisição pai.
func TestReceiveTransfer_DebitsSourceAndCreditsDestination(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transfers").WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "source_warehouse_id", "destination_warehouse_id", "status",
			"created_from_notification_id", "courier_info", "created_at", "updated_at",
		}).AddRow("tr-1", "TRF-AB12CD34", "wh-src", "wh-dst", "in-transit", "n-1", "Sedex 123", now, now))
	mock.ExpectQuery("FROM transfer_lines").WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "transfer_id", "item_id", "qty"}).
			AddRow("tl-1", "tr-1", "i-1", 4))

	// Débito: origem tem 10, fica com 6 (version 3 -> 4).
	mock.ExpectQuery("FROM inventory").WithArgs("i-1", "wh-src").
		WillReturnRows(sqlmock.NewRows(inventoryColumns).AddRow("inv-src", "i-1", "wh-src", 10, 3, now))
	mock.ExpectExec("UPDATE inventory").WithArgs(6, 4, sqlmock.AnyArg(), "inv-src", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Crédito: destino tem 3, fica com 7 (version 1 -> 2) — mesma quantidade.
	mock.ExpectQuery("FROM inventory").WithArgs("i-1", "wh-dst").
		WillReturnRows(sqlmock.NewRows(inventoryColumns).AddRow("inv-dst", "i-1", "wh-dst", 3, 1, now))
	mock.ExpectExec("UPDATE inventory").WithArgs(7, 2, sqlmock.AnyArg(), "inv-dst", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec("UPDATE transfers").WithArgs("received", sqlmock.AnyArg(), "tr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE transfer_notifications").
		WithArgs("transferred", sqlmock.AnyArg(), "n-1", "approved").
		WillReturnRows(sqlmock.NewRows([]string{"request_id"}).AddRow("req-1"))

	// Re-avaliação da requisição pai: era a última linha pendente.
	mock.ExpectQuery("FROM requests").WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "origin_warehouse_id", "requester_id", "priority", "status", "submitted_at", "resolved_at",
		}).AddRow("req-1", "REQ-AB12CD34", "wh-dst", "u-1", "normal", "pending-transfer", now, nil))
	mock.ExpectQuery("SELECT COUNT").WithArgs("req-1", "transferable", "transferred").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM request_lines").WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "item_id", "requested_qty", "outcome"}).
			AddRow("rl-1", "req-1", "i-1", 4, "transferable"))
	mock.ExpectExec("UPDATE requests").WithArgs("fulfilled", sqlmock.AnyArg(), "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.ReceiveTransfer(context.Background(), "tr-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.TransferReceived, result.Transfer.Status)
	assert.Equal(t, "n-1", result.NotificationID)
	assert.Equal(t, "req-1", result.RequestID)
	assert.True(t, result.RequestFulfilled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReceiveTransfer_InsufficientSource_NoPartialDebit: se qualquer linha
// encontra a origem abaixo da quantidade exigida, a operação inteira falha
// com InsufficientStockError e nada é persistido — nunca há débito parcial.
func TestReceiveTransfer_InsufficientSource_NoPartialDebit(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transfers").WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "source_warehouse_id", "destination_warehouse_id", "status",
			"created_from_notification_id", "courier_info", "created_at", "updated_at",
		}).AddRow("tr-1", "TRF-AB12CD34", "wh-src", "wh-dst", "in-transit", nil, "", now, now))
	mock.ExpectQuery("FROM transfer_lines").WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "transfer_id", "item_id", "qty"}).
			AddRow("tl-1", "tr-1", "i-1", 4).
			AddRow("tl-2", "tr-1", "i-2", 5))

	// Primeira linha passa pelo débito...
	mock.ExpectQuery("FROM inventory").WithArgs("i-1", "wh-src").
		WillReturnRows(sqlmock.NewRows(inventoryColumns).AddRow("inv-1", "i-1", "wh-src", 10, 1, now))
	mock.ExpectExec("UPDATE inventory").WithArgs(6, 2, sqlmock.AnyArg(), "inv-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// ...a segunda encontra só 2 em mãos, e tudo volta atrás.
	mock.ExpectQuery("FROM inventory").WithArgs("i-2", "wh-src").
		WillReturnRows(sqlmock.NewRows(inventoryColumns).AddRow("inv-2", "i-2", "wh-src", 2, 1, now))
	mock.ExpectRollback()

	_, err := repo.ReceiveTransfer(context.Background(), "tr-1")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReceiveTransfer_SecondCallMutatesNothing: um segundo recebimento da
// mesma Transferência falha com InvalidTransitionError antes de qualquer
// toque no inventário — o ledger é mutado exatamente uma vez.
func TestReceiveTransfer_SecondCallMutatesNothing(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transfers").WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "source_warehouse_id", "destination_warehouse_id", "status",
			"created_from_notification_id", "courier_info", "created_at", "updated_at",
		}).AddRow("tr-1", "TRF-AB12CD34", "wh-src", "wh-dst", "received", "n-1", "", now, now))
	mock.ExpectRollback()

	_, err := repo.ReceiveTransfer(context.Background(), "tr-1")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestFulfillRequest_DebitsLocalLinesAtomically: o débito das linhas locais e
// a escrita do status fulfilled acontecem na mesma transação.
func TestFulfillRequest_DebitsLocalLinesAtomically(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM requests").WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "origin_warehouse_id", "requester_id", "priority", "status", "submitted_at", "resolved_at",
		}).AddRow("req-1", "REQ-AB12CD34", "wh-1", "u-1", "normal", "approved", now, nil))
	mock.ExpectQuery("FROM request_lines").WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "item_id", "requested_qty", "outcome"}).
			AddRow("rl-1", "req-1", "i-1", 6, "local-sufficient"))

	mock.ExpectQuery("FROM inventory").WithArgs("i-1", "wh-1").
		WillReturnRows(sqlmock.NewRows(inventoryColumns).AddRow("inv-1", "i-1", "wh-1", 10, 2, now))
	mock.ExpectExec("UPDATE inventory").WithArgs(4, 3, sqlmock.AnyArg(), "inv-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE requests").WithArgs("fulfilled", sqlmock.AnyArg(), "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, err := repo.FulfillRequest(context.Background(), "req-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestFulfilled, req.Status)
	assert.NotNil(t, req.ResolvedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestFulfillRequest_InsufficientStock_RollsBack: saldo vivo abaixo da linha
// aborta o fulfillment inteiro — o status da requisição não é escrito.
func TestFulfillRequest_InsufficientStock_RollsBack(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM requests").WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "origin_warehouse_id", "requester_id", "priority", "status", "submitted_at", "resolved_at",
		}).AddRow("req-1", "REQ-AB12CD34", "wh-1", "u-1", "normal", "approved", now, nil))
	mock.ExpectQuery("FROM request_lines").WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "item_id", "requested_qty", "outcome"}).
			AddRow("rl-1", "req-1", "i-1", 6, "local-sufficient"))
	mock.ExpectQuery("FROM inventory").WithArgs("i-1", "wh-1").
		WillReturnRows(sqlmock.NewRows(inventoryColumns).AddRow("inv-1", "i-1", "wh-1", 2, 1, now))
	mock.ExpectRollback()

	_, err := repo.FulfillRequest(context.Background(), "req-1")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCheckIn_NegativeAdjustmentGuard: um ajuste que deixaria o saldo
// negativo é recusado antes de qualquer escrita.
func TestCheckIn_NegativeAdjustmentGuard(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM inventory").WithArgs("i-1", "wh-1").
		WillReturnRows(sqlmock.NewRows(inventoryColumns).AddRow("inv-1", "i-1", "wh-1", 3, 1, now))
	mock.ExpectRollback()

	_, err := repo.CheckIn(context.Background(), domain.CheckInRequest{ItemID: "i-1", WarehouseID: "wh-1", Qty: -5})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCheckIn_CreatesRowWhenAbsent: o primeiro check-in de um par
// (item, armazém) cria a linha de inventário com version 1.
func TestCheckIn_CreatesRowWhenAbsent(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM inventory").WithArgs("i-1", "wh-1").
		WillReturnRows(sqlmock.NewRows(inventoryColumns))
	mock.ExpectExec("INSERT INTO inventory").
		WithArgs(sqlmock.AnyArg(), "i-1", "wh-1", 7, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inv, err := repo.CheckIn(context.Background(), domain.CheckInRequest{ItemID: "i-1", WarehouseID: "wh-1", Qty: 7})

	assert.NoError(t, err)
	assert.Equal(t, 7, inv.OnHandQty)
	assert.Equal(t, 1, inv.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
