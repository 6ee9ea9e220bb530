package proposal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// SQLStore persists proposals in Postgres.
type SQLStore struct {
	DB *sql.DB
}

func (s *SQLStore) FindByToken(ctx context.Context, token string) (string, bool, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id FROM proposals WHERE submission_token = $1`, token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *SQLStore) InsertHeader(ctx context.Context, h Header, c *Calculator, t Totals) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO proposals (
			clinic_id, user_id, currency, discount_percentage, total_amount,
			installment_count, installment_amount,
			down_payment_percentage, down_payment_amount,
			status, notes, submission_token, needs_item_repair
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, $11, false)
		RETURNING id`,
		h.ClinicID, h.UserID, string(h.Currency),
		c.GeneralDiscountPercent(), t.TotalAfterDiscount,
		c.InstallmentCount(), t.InstallmentAmount,
		c.DownPaymentPercent(), t.DownPaymentAmount,
		h.Notes, h.SubmissionToken,
	).Scan(&id)
	return id, err
}

func (s *SQLStore) InsertItem(ctx context.Context, proposalID string, it Item) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO proposal_items (
			proposal_id, product_id, product_name, quantity, unit_price,
			product_currency, excess_percentage, total, original_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		proposalID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice,
		string(it.ProductCurrency), it.ExcessPercentage, it.Total, it.OriginalTotal,
	)
	return err
}

// MarkNeedsItemRepair flags the header and stores the failed lines as a
// JSON payload the repair sweep replays later.
func (s *SQLStore) MarkNeedsItemRepair(ctx context.Context, proposalID string, failed []Item) error {
	payload, err := json.Marshal(failed)
	if err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE proposals SET needs_item_repair = true WHERE id = $1`, proposalID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO proposal_item_repairs (proposal_id, payload, created_at)
		 VALUES ($1, $2, NOW())`, proposalID, payload); err != nil {
		return err
	}
	return tx.Commit()
}
