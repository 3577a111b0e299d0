package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
)

const transactionColumns = `id, sale_date, customer_email, customer_phone, product_name, source_channel,
	gross_amount, net_amount, gross_override, installment_index, total_installments`

const (
	insertTransactionSQL = `INSERT INTO transactions (` + transactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING`

	listHistoryFirstPageSQL = `SELECT ` + transactionColumns + `
	FROM transactions
	ORDER BY sale_date, id
	LIMIT $1`

	listHistoryAfterSQL = `SELECT ` + transactionColumns + `
	FROM transactions
	WHERE (sale_date, id) > ($1, $2)
	ORDER BY sale_date, id
	LIMIT $3`

	listBetweenSQL = `SELECT ` + transactionColumns + `
	FROM transactions
	WHERE sale_date >= $1 AND sale_date < $2
	ORDER BY sale_date, id`
)

// TransactionRepository implements ports.TransactionRepository with pgx
type TransactionRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db ports.DBPort) *TransactionRepository {
	return &TransactionRepository{pool: db.GetDB()}
}

func (r *TransactionRepository) conn(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.pool
}

// Create stores a transaction; an existing id is left untouched
func (r *TransactionRepository) Create(ctx context.Context, db ports.DBTX, tx *domain.Transaction) error {
	gross, err := decimalToNumeric(tx.GrossAmount)
	if err != nil {
		return err
	}
	net, err := decimalToNumeric(tx.NetAmount)
	if err != nil {
		return err
	}
	override, err := nullNumeric(tx.GrossOverride)
	if err != nil {
		return err
	}

	source := tx.SourceChannel
	if source == "" {
		source = domain.SourceChannelManual
	}

	_, err = r.conn(db).Exec(ctx, insertTransactionSQL,
		tx.ID,
		tx.SaleDate,
		nullText(tx.CustomerEmail),
		nullText(tx.CustomerPhone),
		tx.ProductName,
		string(source),
		gross,
		net,
		override,
		int32(tx.InstallmentIndex),
		int32(tx.TotalInstallments),
	)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// ListHistory returns up to limit transactions after the cursor in
// (sale_date, id) order
func (r *TransactionRepository) ListHistory(ctx context.Context, db ports.DBTX, after ports.HistoryCursor, limit int32) ([]*domain.Transaction, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if after.IsZero() {
		rows, err = r.conn(db).Query(ctx, listHistoryFirstPageSQL, limit)
	} else {
		rows, err = r.conn(db).Query(ctx, listHistoryAfterSQL, after.SaleDate, after.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list transaction history: %w", err)
	}
	return collectTransactions(rows)
}

// ListBetween returns transactions with from <= sale_date < to
func (r *TransactionRepository) ListBetween(ctx context.Context, db ports.DBTX, from, to time.Time) ([]*domain.Transaction, error) {
	rows, err := r.conn(db).Query(ctx, listBetweenSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions between: %w", err)
	}
	return collectTransactions(rows)
}

type transactionRow struct {
	SaleDate          time.Time
	ID                string
	CustomerEmail     pgtype.Text
	CustomerPhone     pgtype.Text
	ProductName       string
	SourceChannel     string
	GrossAmount       pgtype.Numeric
	NetAmount         pgtype.Numeric
	GrossOverride     pgtype.Numeric
	InstallmentIndex  int32
	TotalInstallments int32
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var row transactionRow
		if err := rows.Scan(
			&row.ID,
			&row.SaleDate,
			&row.CustomerEmail,
			&row.CustomerPhone,
			&row.ProductName,
			&row.SourceChannel,
			&row.GrossAmount,
			&row.NetAmount,
			&row.GrossOverride,
			&row.InstallmentIndex,
			&row.TotalInstallments,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		tx, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (row *transactionRow) toDomain() (*domain.Transaction, error) {
	gross, err := pgNumericToDecimal(row.GrossAmount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s gross_amount: %w", row.ID, err)
	}
	net, err := pgNumericToDecimal(row.NetAmount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s net_amount: %w", row.ID, err)
	}

	tx := &domain.Transaction{
		ID:                row.ID,
		SaleDate:          row.SaleDate,
		CustomerEmail:     row.CustomerEmail.String,
		CustomerPhone:     row.CustomerPhone.String,
		ProductName:       row.ProductName,
		SourceChannel:     domain.SourceChannel(row.SourceChannel),
		GrossAmount:       gross,
		NetAmount:         net,
		InstallmentIndex:  int(row.InstallmentIndex),
		TotalInstallments: int(row.TotalInstallments),
	}

	if row.GrossOverride.Valid {
		override, err := pgNumericToDecimal(row.GrossOverride)
		if err != nil {
			return nil, fmt.Errorf("transaction %s gross_override: %w", row.ID, err)
		}
		tx.GrossOverride = &override
	}

	return tx, nil
}
