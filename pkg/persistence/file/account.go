package file

import (
	"context"
	"sync"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
)

const accountsDir = "accounts"

// AccountRepository handles account file operations, including the credit
// debit. The shared write lock stands in for the conditional update a SQL
// backend uses.
type AccountRepository struct {
	root string
	mu   *sync.RWMutex
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.getLocked(id)
}

func (r *AccountRepository) getLocked(id string) (*models.Account, error) {
	var account models.Account

	err := readEntity(r.root, accountsDir, id, &account)
	if err != nil {
		if notExist(err) {
			return nil, persistence.NewAccountError("GetByID", id, persistence.ErrAccountNotFound)
		}

		return nil, persistence.NewAccountError("GetByID", id, err)
	}

	return &account, nil
}

func (r *AccountRepository) GetByResourceID(_ context.Context, resourceID string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := listEntityIDs(r.root, accountsDir)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		account, err := r.getLocked(id)
		if err != nil {
			return nil, err
		}

		if account.DriveResourceID == resourceID {
			return account, nil
		}
	}

	return nil, persistence.NewAccountError("GetByResourceID", resourceID, persistence.ErrAccountNotFound)
}

func (r *AccountRepository) Save(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}

	account.UpdatedAt = now

	return writeEntity(r.root, accountsDir, account.ID, account)
}

func (r *AccountRepository) ConsumeCredit(_ context.Context, accountID string) (models.Credits, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, err := r.getLocked(accountID)
	if err != nil {
		return models.Credits{}, err
	}

	if account.Credits.Unlimited() {
		return account.Credits, nil
	}

	if account.Credits.Exhausted() {
		return account.Credits, persistence.NewAccountError("ConsumeCredit", accountID, persistence.ErrInsufficientCredits)
	}

	account.Credits = models.RemainingCredits(account.Credits.Remaining() - 1)
	account.UpdatedAt = time.Now().UTC()

	err = writeEntity(r.root, accountsDir, account.ID, account)
	if err != nil {
		return models.Credits{}, persistence.NewAccountError("ConsumeCredit", accountID, err)
	}

	return account.Credits, nil
}
