package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresLabelLedger implements LabelLedger on the label_ledger table.
type PostgresLabelLedger struct {
	db *sql.DB
}

func NewPostgresLabelLedger(db *sql.DB) *PostgresLabelLedger {
	return &PostgresLabelLedger{db: db}
}

const labelColumns = `tracking_number, label_id, seller_id, label_url, carrier, service, cost,
	order_ids, applied_order_ids, failed_order_ids, status, created_at, updated_at`

func (l *PostgresLabelLedger) Record(ctx context.Context, rec LabelRecord) error {
	if rec.Status == "" {
		rec.Status = StatusFor(rec.AppliedOrderIDs, rec.FailedOrderIDs)
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO label_ledger (tracking_number, label_id, seller_id, label_url, carrier, service, cost,
			order_ids, applied_order_ids, failed_order_ids, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (tracking_number) DO UPDATE SET
			applied_order_ids = EXCLUDED.applied_order_ids,
			failed_order_ids = EXCLUDED.failed_order_ids,
			status = EXCLUDED.status,
			updated_at = NOW()
		 WHERE label_ledger.status <> 'resolved'`,
		rec.TrackingNumber,
		rec.LabelID,
		rec.SellerID,
		rec.LabelURL,
		rec.Carrier,
		rec.Service,
		rec.Cost,
		pq.StringArray(rec.OrderIDs),
		pq.StringArray(rec.AppliedOrderIDs),
		pq.StringArray(rec.FailedOrderIDs),
		string(rec.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to record label %s: %w", rec.TrackingNumber, err)
	}
	return nil
}

func (l *PostgresLabelLedger) Get(ctx context.Context, trackingNumber string) (*LabelRecord, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+labelColumns+` FROM label_ledger WHERE tracking_number = $1`,
		trackingNumber,
	)
	rec, err := scanLabel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLabelNotFound, trackingNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load label %s: %w", trackingNumber, err)
	}
	return rec, nil
}

func (l *PostgresLabelLedger) ListPending(ctx context.Context, sellerID string) ([]LabelRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+labelColumns+` FROM label_ledger
		 WHERE status IN ('unapplied', 'partial')
		   AND ($1::text = '' OR seller_id = $1)
		 ORDER BY created_at`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending labels: %w", err)
	}
	defer rows.Close()

	records := []LabelRecord{}
	for rows.Next() {
		rec, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (l *PostgresLabelLedger) MarkResolved(ctx context.Context, trackingNumber string, applied []string) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE label_ledger
		 SET status = 'resolved', applied_order_ids = $2, failed_order_ids = '{}', updated_at = NOW()
		 WHERE tracking_number = $1`,
		trackingNumber,
		pq.StringArray(applied),
	)
	if err != nil {
		return fmt.Errorf("failed to resolve label %s: %w", trackingNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrLabelNotFound, trackingNumber)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLabel(s scanner) (*LabelRecord, error) {
	var (
		rec                     LabelRecord
		status                  string
		orders, applied, failed pq.StringArray
	)
	err := s.Scan(
		&rec.TrackingNumber,
		&rec.LabelID,
		&rec.SellerID,
		&rec.LabelURL,
		&rec.Carrier,
		&rec.Service,
		&rec.Cost,
		&orders,
		&applied,
		&failed,
		&status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.OrderIDs = []string(orders)
	rec.AppliedOrderIDs = []string(applied)
	rec.FailedOrderIDs = []string(failed)
	rec.Status = LabelStatus(status)
	return &rec, nil
}
