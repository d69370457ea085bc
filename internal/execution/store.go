// Package execution owns the Signal lifecycle: persistence, the
// pending/approved/executed state machine, per-signal processing
// locks, and the queue drainer that submits orders to the Broker
// Adapter.
package execution

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/trading-council/internal/database"
	"github.com/aristath/trading-council/internal/domain"
)

// SignalStore persists Signals and their processing locks.
type SignalStore interface {
	Insert(ctx context.Context, s *domain.Signal) error
	Get(ctx context.Context, id string) (*domain.Signal, error)
	UpdateStatus(ctx context.Context, id string, status domain.SignalStatus) error
	MarkExecuted(ctx context.Context, id string, executedQty, executedPrice float64, orderNo string) error
	List(ctx context.Context, status domain.SignalStatus, limit int) ([]*domain.Signal, error)
	// AcquireProcessingLock sets processing_lock_until for id if it is
	// currently unlocked or the existing lock has expired, atomically.
	// Returns false if another worker holds a live lock.
	AcquireProcessingLock(ctx context.Context, id string, ttl time.Duration) (bool, error)
	ReleaseProcessingLock(ctx context.Context, id string) error
	// RestorePending returns every signal left in a non-terminal state
	// with quantity > 0, for crash-safe startup restoration.
	RestorePending(ctx context.Context) ([]*domain.Signal, error)
}

// SQLiteStore implements SignalStore on the signals database, relying on
// SQLite's single-writer rule to serialize processing-lock claims.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore wraps an already-migrated signals database.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Insert(ctx context.Context, sig *domain.Signal) error {
	var triggerDetails []byte
	if len(sig.Triggers) > 0 {
		var err error
		triggerDetails, err = json.Marshal(sig.Triggers)
		if err != nil {
			return fmt.Errorf("execution: marshal trigger details for %s: %w", sig.ID, err)
		}
	}
	var holdingDeadline sql.NullTime
	if sig.HoldingDeadline != nil {
		holdingDeadline = sql.NullTime{Time: *sig.HoldingDeadline, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (id, symbol, company, action, status, trigger_source, confidence, council_score,
			quant_score, fundamental_score, allocation_percent, suggested_amount, entry_price,
			stop_loss_price, target_price, quantity, rationale, trigger_details, holding_deadline,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sig.ID, sig.Symbol, sig.Company, string(sig.Action), string(sig.Status), string(sig.TriggerSource),
		sig.Confidence, sig.QuantScore+sig.FundamentalScore, sig.QuantScore, sig.FundamentalScore,
		sig.AllocationPercent, sig.SuggestedAmount, sig.EntryPrice, sig.StopLossPrice, sig.TargetPrice,
		sig.SuggestedQuantity, sig.ConsensusSummary, string(triggerDetails), holdingDeadline,
		sig.CreatedAt, sig.CreatedAt)
	if err != nil {
		return fmt.Errorf("execution: insert signal %s: %w", sig.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Signal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, company, action, status, trigger_source, confidence, quant_score,
			fundamental_score, allocation_percent, suggested_amount, entry_price, stop_loss_price,
			target_price, quantity, trigger_details, holding_deadline, executed_quantity,
			executed_price, broker_order_id, is_executed, created_at, executed_at
		FROM signals WHERE id = ?`, id)
	return scanSignal(row)
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status domain.SignalStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE signals SET status = ?, updated_at = ? WHERE id = ?`, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("execution: update status for %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) MarkExecuted(ctx context.Context, id string, executedQty, executedPrice float64, orderNo string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE signals SET is_executed = 1, executed_quantity = ?, executed_price = ?,
			broker_order_id = ?, executed_at = ?, updated_at = ? WHERE id = ?`,
		executedQty, executedPrice, orderNo, now, now, id)
	if err != nil {
		return fmt.Errorf("execution: mark executed for %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, status domain.SignalStatus, limit int) ([]*domain.Signal, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, company, action, status, trigger_source, confidence, quant_score,
			fundamental_score, allocation_percent, suggested_amount, entry_price, stop_loss_price,
			target_price, quantity, trigger_details, holding_deadline, executed_quantity,
			executed_price, broker_order_id, is_executed, created_at, executed_at
		FROM signals WHERE status = ? ORDER BY created_at DESC LIMIT ?`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("execution: list signals: %w", err)
	}
	defer rows.Close()

	var out []*domain.Signal
	for rows.Next() {
		sig, err := scanSignalRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// AcquireProcessingLock reads and sets processing_lock_until inside one
// transaction opened with the default (deferred) BEGIN, not BEGIN
// IMMEDIATE. A second worker that read the same unlocked row has its
// UPDATE fail with a busy error under SQLite's single-writer rule, so it
// gets an error rather than the lock.
func (s *SQLiteStore) AcquireProcessingLock(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("execution: begin lock tx for %s: %w", id, err)
	}
	defer tx.Rollback()

	var lockUntil sql.NullTime
	if err := tx.QueryRowContext(ctx, `SELECT processing_lock_until FROM signals WHERE id = ?`, id).Scan(&lockUntil); err != nil {
		return false, fmt.Errorf("execution: read lock for %s: %w", id, err)
	}

	now := time.Now()
	if lockUntil.Valid && lockUntil.Time.After(now) {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE signals SET processing_lock_until = ? WHERE id = ?`, now.Add(ttl), id); err != nil {
		return false, fmt.Errorf("execution: set lock for %s: %w", id, err)
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) ReleaseProcessingLock(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE signals SET processing_lock_until = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("execution: release lock for %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) RestorePending(ctx context.Context) ([]*domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, company, action, status, trigger_source, confidence, quant_score,
			fundamental_score, allocation_percent, suggested_amount, entry_price, stop_loss_price,
			target_price, quantity, trigger_details, holding_deadline, executed_quantity,
			executed_price, broker_order_id, is_executed, created_at, executed_at
		FROM signals WHERE status IN (?, ?, ?) AND quantity > 0`,
		string(domain.SignalStatusPending), string(domain.SignalStatusQueued), string(domain.SignalStatusApproved))
	if err != nil {
		return nil, fmt.Errorf("execution: restore pending: %w", err)
	}
	defer rows.Close()

	var out []*domain.Signal
	for rows.Next() {
		sig, err := scanSignalRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(row *sql.Row) (*domain.Signal, error) {
	return scanRow(row)
}

func scanSignalRows(rows *sql.Rows) (*domain.Signal, error) {
	return scanRow(rows)
}

func scanRow(r rowScanner) (*domain.Signal, error) {
	var sig domain.Signal
	var action, status, triggerSource string
	var company sql.NullString
	var triggerDetails sql.NullString
	var holdingDeadline sql.NullTime
	var executedQty, executedPrice sql.NullFloat64
	var orderNo sql.NullString
	var isExecuted int
	var executedAt sql.NullTime

	err := r.Scan(&sig.ID, &sig.Symbol, &company, &action, &status, &triggerSource, &sig.Confidence,
		&sig.QuantScore, &sig.FundamentalScore, &sig.AllocationPercent, &sig.SuggestedAmount,
		&sig.EntryPrice, &sig.StopLossPrice, &sig.TargetPrice, &sig.SuggestedQuantity,
		&triggerDetails, &holdingDeadline, &executedQty, &executedPrice, &orderNo, &isExecuted,
		&sig.CreatedAt, &executedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("execution: scan signal: %w", err)
	}

	sig.Company = company.String
	if triggerDetails.Valid && triggerDetails.String != "" {
		if err := json.Unmarshal([]byte(triggerDetails.String), &sig.Triggers); err != nil {
			return nil, fmt.Errorf("execution: unmarshal trigger details for %s: %w", sig.ID, err)
		}
	}
	if holdingDeadline.Valid {
		t := holdingDeadline.Time
		sig.HoldingDeadline = &t
	}

	sig.Action = domain.Action(action)
	sig.Status = domain.SignalStatus(status)
	sig.TriggerSource = domain.TriggerSource(triggerSource)
	sig.IsExecuted = isExecuted != 0
	if executedQty.Valid {
		sig.SuggestedQuantity = executedQty.Float64
	}
	if executedAt.Valid {
		t := executedAt.Time
		sig.ExecutedAt = &t
	}
	return &sig, nil
}
