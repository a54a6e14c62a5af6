package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ndewijer/invest-tracker/internal/bondrates"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/repository"
)

// BondRateService loads coupon schedules into the bond rate table.
type BondRateService struct {
	repo *repository.BondRateRepository
	log  zerolog.Logger
}

// NewBondRateService creates a new BondRateService.
func NewBondRateService(repo *repository.BondRateRepository, log zerolog.Logger) *BondRateService {
	return &BondRateService{repo: repo, log: log.With().Str("component", "bonds").Logger()}
}

// LoadFile replaces the stored schedules of every series listed in the YAML file.
// Returns the loaded series.
func (s *BondRateService) LoadFile(ctx context.Context, path string) ([]model.BondSeries, error) {
	series, err := bondrates.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceSeries(ctx, series); err != nil {
		return nil, err
	}
	s.log.Info().Str("path", path).Int("series", len(series)).Msg("bond rates loaded")
	return series, nil
}

// GetSeries returns every stored schedule.
func (s *BondRateService) GetSeries(ctx context.Context) ([]model.BondSeries, error) {
	return s.repo.GetSeries(ctx)
}
