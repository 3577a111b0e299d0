package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
)

const payoutColumns = `id, person_id, period_key, ladder_name, base_fixed, base_variable, achieved_pct,
	multiplier, variable_final, total_payable, status, approved_by, approved_at, version, created_at, updated_at`

const adjustmentColumns = `a.id, a.payout_id, a.kind, a.amount, a.reason, a.created_by, a.created_at`

const (
	insertPayoutSQL = `INSERT INTO payouts (` + payoutColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, $14, $15)`

	getPayoutSQL = `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	updatePayoutSQL = `UPDATE payouts SET
		ladder_name = $3,
		achieved_pct = $4,
		multiplier = $5,
		variable_final = $6,
		total_payable = $7,
		status = $8,
		approved_by = $9,
		approved_at = $10,
		updated_at = $11,
		version = version + 1
	WHERE id = $1 AND version = $2`

	payoutExistsSQL = `SELECT EXISTS (SELECT 1 FROM payouts WHERE id = $1)`

	listPayoutsByPeriodSQL = `SELECT ` + payoutColumns + `
	FROM payouts WHERE period_key = $1
	ORDER BY person_id, id`

	listAdjustmentsSQL = `SELECT ` + adjustmentColumns + `
	FROM payout_adjustments a
	WHERE a.payout_id = $1
	ORDER BY a.created_at, a.id`

	listAdjustmentsByPeriodSQL = `SELECT ` + adjustmentColumns + `
	FROM payout_adjustments a
	JOIN payouts p ON p.id = a.payout_id
	WHERE p.period_key = $1
	ORDER BY a.created_at, a.id`

	insertAdjustmentSQL = `INSERT INTO payout_adjustments (id, payout_id, kind, amount, reason, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// PayoutRepository implements ports.PayoutRepository with pgx
type PayoutRepository struct {
	pool *pgxpool.Pool
}

var _ ports.PayoutRepository = (*PayoutRepository)(nil)

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db ports.DBPort) *PayoutRepository {
	return &PayoutRepository{pool: db.GetDB()}
}

func (r *PayoutRepository) conn(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.pool
}

// Create inserts a draft payout at version 1
func (r *PayoutRepository) Create(ctx context.Context, db ports.DBTX, payout *domain.Payout) error {
	id, err := uuid.Parse(payout.ID)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeValidationFailed, "invalid payout id", err)
	}

	amounts, err := numerics(payout.BaseFixed, payout.BaseVariable, payout.AchievedPct,
		payout.Multiplier, payout.VariableFinal, payout.TotalPayable)
	if err != nil {
		return err
	}

	_, err = r.conn(db).Exec(ctx, insertPayoutSQL,
		id,
		payout.PersonID,
		payout.PeriodKey,
		payout.LadderName,
		amounts[0], amounts[1], amounts[2], amounts[3], amounts[4], amounts[5],
		string(payout.Status),
		nullTextPtr(payout.ApprovedBy),
		nullTime(payout.ApprovedAt),
		payout.CreatedAt,
		payout.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.WrapError(domain.ErrorCodePayoutAlreadyExists,
				fmt.Sprintf("payout for %s in %s already exists", payout.PersonID, payout.PeriodKey), err).
				WithDetail("person_id", payout.PersonID).
				WithDetail("period_key", payout.PeriodKey)
		}
		return fmt.Errorf("create payout: %w", err)
	}

	payout.Version = 1
	return nil
}

// GetByID loads a payout and its adjustment ledger
func (r *PayoutRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Payout, error) {
	payoutID, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound(id)
	}

	q := r.conn(db)
	payout, err := scanPayout(q.QueryRow(ctx, getPayoutSQL, payoutID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("get payout: %w", err)
	}

	rows, err := q.Query(ctx, listAdjustmentsSQL, payoutID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	adjustments, err := collectAdjustments(rows)
	if err != nil {
		return nil, err
	}
	payout.Adjustments = adjustments[payout.ID]

	return payout, nil
}

// Update writes the payout header under optimistic locking
func (r *PayoutRepository) Update(ctx context.Context, db ports.DBTX, payout *domain.Payout, expectedVersion int64) error {
	id, err := uuid.Parse(payout.ID)
	if err != nil {
		return notFound(payout.ID)
	}

	amounts, err := numerics(payout.AchievedPct, payout.Multiplier, payout.VariableFinal, payout.TotalPayable)
	if err != nil {
		return err
	}

	q := r.conn(db)
	tag, err := q.Exec(ctx, updatePayoutSQL,
		id,
		expectedVersion,
		payout.LadderName,
		amounts[0], amounts[1], amounts[2], amounts[3],
		string(payout.Status),
		nullTextPtr(payout.ApprovedBy),
		nullTime(payout.ApprovedAt),
		payout.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update payout: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, payoutExistsSQL, id).Scan(&exists); err != nil {
			return fmt.Errorf("check payout: %w", err)
		}
		if !exists {
			return notFound(payout.ID)
		}
		return domain.WrapError(domain.ErrorCodePayoutVersionConflict,
			fmt.Sprintf("payout %s changed since version %d", payout.ID, expectedVersion),
			domain.ErrPayoutVersionConflict).
			WithDetail("payout_id", payout.ID).
			WithDetail("expected_version", expectedVersion)
	}

	payout.Version = expectedVersion + 1
	return nil
}

// ListByPeriod returns the payouts of a period with their adjustments
func (r *PayoutRepository) ListByPeriod(ctx context.Context, db ports.DBTX, periodKey string) ([]*domain.Payout, error) {
	q := r.conn(db)

	rows, err := q.Query(ctx, listPayoutsByPeriodSQL, periodKey)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	payouts := []*domain.Payout{}
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payouts: %w", err)
	}
	rows.Close()

	if len(payouts) == 0 {
		return payouts, nil
	}

	adjRows, err := q.Query(ctx, listAdjustmentsByPeriodSQL, periodKey)
	if err != nil {
		return nil, fmt.Errorf("list period adjustments: %w", err)
	}
	adjustments, err := collectAdjustments(adjRows)
	if err != nil {
		return nil, err
	}
	for _, p := range payouts {
		p.Adjustments = adjustments[p.ID]
	}

	return payouts, nil
}

// InsertAdjustment appends one ledger entry
func (r *PayoutRepository) InsertAdjustment(ctx context.Context, db ports.DBTX, adj *domain.PayoutAdjustment) error {
	id, err := uuid.Parse(adj.ID)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeValidationFailed, "invalid adjustment id", err)
	}
	payoutID, err := uuid.Parse(adj.PayoutID)
	if err != nil {
		return notFound(adj.PayoutID)
	}
	amount, err := decimalToNumeric(adj.Amount)
	if err != nil {
		return err
	}

	_, err = r.conn(db).Exec(ctx, insertAdjustmentSQL,
		id, payoutID, string(adj.Kind), amount, adj.Reason, adj.CreatedBy, adj.CreatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case pgForeignKeyViolation:
			return notFound(adj.PayoutID)
		case pgCheckViolation:
			// table constraints guard the entry itself; the locked guard trigger names none
			if constraint := pgConstraintName(err); constraint != "" {
				return domain.WrapError(domain.ErrorCodeValidationFailed,
					fmt.Sprintf("adjustment for payout %s violates %s", adj.PayoutID, constraint), err).
					WithDetail("payout_id", adj.PayoutID).
					WithDetail("constraint", constraint)
			}
			return domain.WrapError(domain.ErrorCodePayoutInvalidState,
				fmt.Sprintf("adjustment rejected for payout %s", adj.PayoutID), err).
				WithDetail("payout_id", adj.PayoutID)
		}
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

func notFound(id string) error {
	return domain.WrapError(domain.ErrorCodePayoutNotFound,
		fmt.Sprintf("payout %s not found", id), domain.ErrPayoutNotFound).
		WithDetail("payout_id", id)
}

func nullTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	var (
		id         uuid.UUID
		status     string
		approvedBy pgtype.Text
		approvedAt pgtype.Timestamptz
		p          domain.Payout

		baseFixed, baseVariable, achieved, mult, varFinal, total pgtype.Numeric
	)
	if err := row.Scan(
		&id,
		&p.PersonID,
		&p.PeriodKey,
		&p.LadderName,
		&baseFixed, &baseVariable, &achieved, &mult, &varFinal, &total,
		&status,
		&approvedBy,
		&approvedAt,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.ID = id.String()
	p.Status = domain.PayoutStatus(status)
	p.ApprovedBy = textPtr(approvedBy)
	if approvedAt.Valid {
		at := approvedAt.Time
		p.ApprovedAt = &at
	}

	var err error
	if p.BaseFixed, err = pgNumericToDecimal(baseFixed); err != nil {
		return nil, fmt.Errorf("payout %s base_fixed: %w", p.ID, err)
	}
	if p.BaseVariable, err = pgNumericToDecimal(baseVariable); err != nil {
		return nil, fmt.Errorf("payout %s base_variable: %w", p.ID, err)
	}
	if p.AchievedPct, err = pgNumericToDecimal(achieved); err != nil {
		return nil, fmt.Errorf("payout %s achieved_pct: %w", p.ID, err)
	}
	if p.Multiplier, err = pgNumericToDecimal(mult); err != nil {
		return nil, fmt.Errorf("payout %s multiplier: %w", p.ID, err)
	}
	if p.VariableFinal, err = pgNumericToDecimal(varFinal); err != nil {
		return nil, fmt.Errorf("payout %s variable_final: %w", p.ID, err)
	}
	if p.TotalPayable, err = pgNumericToDecimal(total); err != nil {
		return nil, fmt.Errorf("payout %s total_payable: %w", p.ID, err)
	}

	return &p, nil
}

// collectAdjustments groups ledger rows by payout id, preserving row order
func collectAdjustments(rows pgx.Rows) (map[string][]domain.PayoutAdjustment, error) {
	defer rows.Close()

	out := make(map[string][]domain.PayoutAdjustment)
	for rows.Next() {
		var (
			id, payoutID uuid.UUID
			kind         string
			amount       pgtype.Numeric
			adj          domain.PayoutAdjustment
		)
		if err := rows.Scan(&id, &payoutID, &kind, &amount, &adj.Reason, &adj.CreatedBy, &adj.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}

		value, err := pgNumericToDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("adjustment %s amount: %w", id, err)
		}
		adj.ID = id.String()
		adj.PayoutID = payoutID.String()
		adj.Kind = domain.AdjustmentKind(kind)
		adj.Amount = value

		out[adj.PayoutID] = append(out[adj.PayoutID], adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjustments: %w", err)
	}
	return out, nil
}
