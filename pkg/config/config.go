// Package config loads the optional YAML seed file that provisions accounts
// at startup. Intended for development and single-tenant deployments where no
// separate provisioning service exists.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"gopkg.in/yaml.v3"
)

// SeedFile is the structure of the seed YAML file.
type SeedFile struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

// SeedAccount provisions one account. Credits is the textual balance form:
// "Unlimited" or a non-negative integer.
type SeedAccount struct {
	ID              string `yaml:"id"`
	Email           string `yaml:"email"`
	DriveResourceID string `yaml:"drive_resource_id"`
	Credits         string `yaml:"credits"`
}

// LoadSeed parses the seed file at path.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, account := range seed.Accounts {
		if account.ID == "" {
			return nil, fmt.Errorf("seed account %d: id is required", i)
		}

		if account.DriveResourceID == "" {
			return nil, fmt.Errorf("seed account %q: drive_resource_id is required", account.ID)
		}

		if _, err := models.ParseCredits(account.Credits); err != nil {
			return nil, fmt.Errorf("seed account %q: %w", account.ID, err)
		}
	}

	return &seed, nil
}

// Apply upserts every seeded account. Existing accounts are overwritten,
// re-applying a seed file is idempotent.
func (s *SeedFile) Apply(ctx context.Context, p persistence.Persistence) error {
	for _, seeded := range s.Accounts {
		credits, err := models.ParseCredits(seeded.Credits)
		if err != nil {
			return err
		}

		account := &models.Account{
			ID:              seeded.ID,
			Email:           seeded.Email,
			DriveResourceID: seeded.DriveResourceID,
			Credits:         credits,
		}

		if err := p.AccountRepository().Save(ctx, account); err != nil {
			return fmt.Errorf("failed to seed account %q: %w", seeded.ID, err)
		}
	}

	return nil
}
