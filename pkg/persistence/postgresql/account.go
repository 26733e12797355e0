package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
)

// AccountRepository handles account storage and the credit ledger. Credits
// are a nullable integer column: NULL means unlimited.
type AccountRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const accountColumns = `
	id
  , email
  , drive_resource_id
  , credits
  , created_at
  , updated_at
`

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewAccountError("GetByID", id, persistence.ErrAccountNotFound)
		}

		return nil, persistence.NewAccountError("GetByID", id, err)
	}

	return account, nil
}

func (r *AccountRepository) GetByResourceID(ctx context.Context, resourceID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE drive_resource_id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, resourceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewAccountError("GetByResourceID", resourceID, persistence.ErrAccountNotFound)
		}

		return nil, persistence.NewAccountError("GetByResourceID", resourceID, err)
	}

	return account, nil
}

func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()

	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}

	account.UpdatedAt = now

	query := `
		INSERT INTO accounts (id, email, drive_resource_id, credits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			drive_resource_id = EXCLUDED.drive_resource_id,
			credits = EXCLUDED.credits,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		nullableString(account.DriveResourceID),
		creditsToColumn(account.Credits),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return persistence.NewAccountError("Save", account.ID, err)
	}

	return nil
}

// ConsumeCredit debits one credit in a single conditional UPDATE so the
// balance can never go negative under concurrent runs. Unlimited accounts
// (NULL credits) match no row and are resolved by a follow-up read.
func (r *AccountRepository) ConsumeCredit(ctx context.Context, accountID string) (models.Credits, error) {
	var remaining int

	err := r.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET credits = credits - 1, updated_at = NOW()
		WHERE id = $1 AND credits IS NOT NULL AND credits > 0
		RETURNING credits
	`, accountID).Scan(&remaining)

	if err == nil {
		return models.RemainingCredits(remaining), nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return models.Credits{}, persistence.NewAccountError("ConsumeCredit", accountID, err)
	}

	// No row matched: the account is missing, unlimited, or exhausted.
	account, err := r.GetByID(ctx, accountID)
	if err != nil {
		return models.Credits{}, err
	}

	if account.Credits.Unlimited() {
		return account.Credits, nil
	}

	return models.Credits{}, persistence.NewAccountError("ConsumeCredit", accountID, persistence.ErrInsufficientCredits)
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account    models.Account
		resourceID sql.NullString
		credits    sql.NullInt64
	)

	err := row.Scan(
		&account.ID,
		&account.Email,
		&resourceID,
		&credits,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.DriveResourceID = resourceID.String

	if credits.Valid {
		account.Credits = models.RemainingCredits(int(credits.Int64))
	} else {
		account.Credits = models.UnlimitedCredits()
	}

	return &account, nil
}

func creditsToColumn(credits models.Credits) any {
	if credits.Unlimited() {
		return nil
	}

	return credits.Remaining()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}
