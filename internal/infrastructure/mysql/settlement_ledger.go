package mysql

import (
	"context"
	"database/sql"
	"errors"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/utils"
)

const bidColumns = `id, lot_id, user_id, amount, created_at`

type MySQLSettlementLedger struct {
	db *sql.DB
}

func NewMySQLSettlementLedger(db *sql.DB) *MySQLSettlementLedger {
	return &MySQLSettlementLedger{db: db}
}

func (r *MySQLSettlementLedger) Commit(ctx context.Context, snapshot *domain.Lot, userID string, amount int64) (*domain.Bid, error) {
	bid := &domain.Bid{
		ID:        utils.GenerateID(),
		LotID:     snapshot.ID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: now(),
	}

	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		insert := `
            INSERT INTO bids (id, lot_id, user_id, amount, created_at)
            VALUES (?, ?, ?, ?, ?)
        `
		if _, err := tx.ExecContext(ctx, insert,
			bid.ID, bid.LotID, bid.UserID, bid.Amount, bid.CreatedAt); err != nil {
			return err
		}

		// <=> keeps the compare-and-set NULL safe for the first bid
		update := `UPDATE lots SET current_bid = ?, updated_at = ? WHERE id = ? AND current_bid <=> ?`
		result, err := tx.ExecContext(ctx, update,
			amount, bid.CreatedAt, snapshot.ID, nullablePrice(snapshot.CurrentBid))
		if err != nil {
			return err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrStaleLot
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return bid, nil
}

func (r *MySQLSettlementLedger) GetBid(ctx context.Context, bidID string) (*domain.Bid, error) {
	return getBid(ctx, r.db, bidID, false)
}

func getBid(ctx context.Context, db DBTX, bidID string, forUpdate bool) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var bid domain.Bid
	err := db.QueryRowContext(ctx, query, bidID).Scan(
		&bid.ID, &bid.LotID, &bid.UserID, &bid.Amount, &bid.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBidNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *MySQLSettlementLedger) ListBids(ctx context.Context, lotID string) ([]*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + `
        FROM bids
        WHERE lot_id = ?
        ORDER BY created_at ASC, amount ASC
    `

	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := make([]*domain.Bid, 0)
	for rows.Next() {
		var bid domain.Bid
		if err := rows.Scan(&bid.ID, &bid.LotID, &bid.UserID, &bid.Amount, &bid.CreatedAt); err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}

func (r *MySQLSettlementLedger) RevokeBid(ctx context.Context, bidID string) (*domain.Bid, *domain.Lot, error) {
	var bid *domain.Bid
	var lot *domain.Lot

	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		var err error
		bid, err = getBid(ctx, tx, bidID, true)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM bids WHERE id = ?`, bidID); err != nil {
			return err
		}

		lot, err = recomputePrice(ctx, tx, bid.LotID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return bid, lot, nil
}

func (r *MySQLSettlementLedger) RecomputePrice(ctx context.Context, lotID string) (*domain.Lot, error) {
	var lot *domain.Lot

	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		var err error
		lot, err = recomputePrice(ctx, tx, lotID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return lot, nil
}

// recomputePrice sets current_bid to the highest remaining bid, or start_bid
// when the lot has none left.
func recomputePrice(ctx context.Context, tx DBTX, lotID string) (*domain.Lot, error) {
	update := `
        UPDATE lots
        SET current_bid = COALESCE((SELECT MAX(amount) FROM bids WHERE lot_id = ?), start_bid),
            updated_at = ?
        WHERE id = ?
    `
	if _, err := tx.ExecContext(ctx, update, lotID, now(), lotID); err != nil {
		return nil, err
	}

	return getLot(ctx, tx, lotID, false)
}

func (r *MySQLSettlementLedger) FindPriceDrift(ctx context.Context) ([]*domain.PriceDrift, error) {
	query := `
        SELECT l.id, l.current_bid, COALESCE(MAX(b.amount), l.start_bid) AS expected, COUNT(b.id) AS bid_count
        FROM lots l
        LEFT JOIN bids b ON b.lot_id = l.id
        GROUP BY l.id, l.current_bid, l.start_bid
        HAVING (bid_count = 0 AND l.current_bid IS NOT NULL AND l.current_bid <> l.start_bid)
            OR (bid_count > 0 AND NOT (l.current_bid <=> MAX(b.amount)))
        ORDER BY l.id
    `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drifts []*domain.PriceDrift
	for rows.Next() {
		var drift domain.PriceDrift
		var stored sql.NullInt64

		if err := rows.Scan(&drift.LotID, &stored, &drift.Expected, &drift.BidCount); err != nil {
			return nil, err
		}
		if stored.Valid {
			price := stored.Int64
			drift.Stored = &price
		}
		drifts = append(drifts, &drift)
	}

	return drifts, rows.Err()
}
