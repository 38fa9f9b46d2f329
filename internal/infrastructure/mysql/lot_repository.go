package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lot-bidding/internal/domain"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// ER_DUP_ENTRY
const errDuplicateEntry = 1062

const lotColumns = `id, auction_id, start_bid, current_bid, min_increment, ends_at, created_at, updated_at`

type MySQLLotRepository struct {
	db *sql.DB
}

func NewMySQLLotRepository(db *sql.DB) *MySQLLotRepository {
	return &MySQLLotRepository{db: db}
}

func (r *MySQLLotRepository) CreateLot(ctx context.Context, lot *domain.Lot) error {
	query := `
        INSERT INTO lots (id, auction_id, start_bid, current_bid, min_increment, ends_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		lot.ID, lot.AuctionID, lot.StartBid, nullablePrice(lot.CurrentBid),
		lot.MinIncrement, lot.EndsAt, lot.CreatedAt, lot.UpdatedAt)
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: lot %s already exists", domain.ErrInvalidLot, lot.ID)
	}
	return err
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}

func (r *MySQLLotRepository) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	return getLot(ctx, r.db, lotID, false)
}

func getLot(ctx context.Context, db DBTX, lotID string, forUpdate bool) (*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	lot, err := scanLot(db.QueryRowContext(ctx, query, lotID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func scanLot(row *sql.Row) (*domain.Lot, error) {
	var lot domain.Lot
	var currentBid sql.NullInt64

	err := row.Scan(&lot.ID, &lot.AuctionID, &lot.StartBid, &currentBid,
		&lot.MinIncrement, &lot.EndsAt, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if currentBid.Valid {
		price := currentBid.Int64
		lot.CurrentBid = &price
	}
	return &lot, nil
}

func nullablePrice(price *int64) sql.NullInt64 {
	if price == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *price, Valid: true}
}

// now is truncated to what a DATETIME(6) column keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
