package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brandstudio/internal/domain"
)

// CreditRepositoryPG implements domain.CreditRepository.
//
// Debit and Refund are single atomic statements rather than
// read-modify-write so concurrent jobs for the same business cannot
// lose updates.
type CreditRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new credit repository backed by PostgreSQL.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepositoryPG {
	return &CreditRepositoryPG{pool: pool}
}

// Balance returns the current credit balance for a business.
func (r *CreditRepositoryPG) Balance(ctx context.Context, businessID string) (int, error) {
	query := `
SELECT balance
FROM credit_balances
WHERE business_id = $1;
`
	var balance int
	if err := r.pool.QueryRow(ctx, query, businessID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Debit subtracts amount from the balance if and only if it covers the
// amount. The conditional update fails closed: no row is touched when
// the balance is short.
func (r *CreditRepositoryPG) Debit(ctx context.Context, businessID string, amount int) error {
	query := `
UPDATE credit_balances
SET balance = balance - $2,
    updated_at = NOW()
WHERE business_id = $1 AND balance >= $2;
`
	tag, err := r.pool.Exec(ctx, query, businessID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientCredits
	}
	return nil
}

// Refund adds amount back to the balance.
func (r *CreditRepositoryPG) Refund(ctx context.Context, businessID string, amount int) error {
	query := `
UPDATE credit_balances
SET balance = balance + $2,
    updated_at = NOW()
WHERE business_id = $1;
`
	tag, err := r.pool.Exec(ctx, query, businessID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
