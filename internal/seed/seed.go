// Package seed loads reference data into an empty store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deppfellow/lodging/internal/errs"
	"github.com/deppfellow/lodging/internal/model"
	"github.com/rs/zerolog"
)

// countriesJSON is the ISO 3166-1 alpha-2 country list.
//
//go:embed countries.json
var countriesJSON []byte

// Store is the part of the repository seeding needs.
type Store interface {
	CountryByCode(ctx context.Context, code string) (*model.Country, error)
	Save(ctx context.Context, e model.Entity) (model.Entity, error)
}

// Result counts what a seeding run did.
type Result struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// LoadCountries decodes the embedded country list.
func LoadCountries() ([]*model.Country, error) {
	var rows []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(countriesJSON, &rows); err != nil {
		return nil, fmt.Errorf("decoding embedded countries: %w", err)
	}

	countries := make([]*model.Country, len(rows))
	for i, r := range rows {
		countries[i] = model.NewCountry(r.Name, r.Code)
	}
	return countries, nil
}

// Countries creates every embedded country whose code is not stored yet.
// Running it again is a no-op.
func Countries(ctx context.Context, store Store, logger *zerolog.Logger) (Result, error) {
	var result Result

	countries, err := LoadCountries()
	if err != nil {
		return result, err
	}

	logger.Info().Int("count", len(countries)).Msg("Checking and creating countries...")

	for _, country := range countries {
		existing, err := store.CountryByCode(ctx, country.Code)
		if err != nil {
			return result, fmt.Errorf("looking up country %s: %w", country.Code, err)
		}
		if existing != nil {
			logger.Debug().Str("code", country.Code).Msg("country already exists, skipping")
			result.Skipped++
			continue
		}

		if _, err := store.Save(ctx, country); err != nil {
			// Another seeder got there first.
			if errors.Is(err, errs.ErrUniquenessViolation) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("creating country %s: %w", country.Code, err)
		}

		logger.Debug().Str("code", country.Code).Msg("country created")
		result.Created++
	}

	if result.Created > 0 {
		logger.Info().Int("created", result.Created).Msgf("Finished creating %d new countries", result.Created)
	} else {
		logger.Info().Msg("All countries already exist")
	}

	return result, nil
}
