package mysql

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"lot-bidding/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestMySQLLotRepository_GetLot(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewMySQLLotRepository(db)

	want := testLot()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + lotColumns + ` FROM lots WHERE id = ?`)).
		WithArgs("lot-1").
		WillReturnRows(lotRows(want))

	lot, err := repo.GetLot(context.Background(), "lot-1")
	require.NoError(t, err)
	require.Equal(t, want, lot)
	require.Nil(t, lot.CurrentBid)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLLotRepository_GetLot_WithPrice(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewMySQLLotRepository(db)

	want := testLot()
	want.CurrentBid = price(10500)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM lots WHERE id = ?`)).
		WithArgs("lot-1").
		WillReturnRows(lotRows(want))

	lot, err := repo.GetLot(context.Background(), "lot-1")
	require.NoError(t, err)
	require.Equal(t, int64(10500), *lot.CurrentBid)
}

func TestMySQLLotRepository_GetLot_NotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewMySQLLotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM lots WHERE id = ?`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLot(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestMySQLLotRepository_CreateLot(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewMySQLLotRepository(db)

	lot := testLot()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lots (id, auction_id, start_bid, current_bid, min_increment, ends_at, created_at, updated_at)`)).
		WithArgs("lot-1", "auction-1", int64(10000), nil, int64(500), lot.EndsAt, lot.CreatedAt, lot.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateLot(context.Background(), lot))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLLotRepository_CreateLot_Duplicate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewMySQLLotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lots`)).
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'lot-1' for key 'PRIMARY'"})

	err := repo.CreateLot(context.Background(), testLot())
	require.ErrorIs(t, err, domain.ErrInvalidLot)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLLotRepository_CreateLot_OtherError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewMySQLLotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lots`)).
		WillReturnError(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found"})

	err := repo.CreateLot(context.Background(), testLot())
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrInvalidLot)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db, mock := newSQLMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			panic("kaput")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}
