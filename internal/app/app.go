// Package app wires repositories, provider clients and services from a Config.
// Both the HTTP server and the CLI start from New.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ndewijer/invest-tracker/internal/config"
	"github.com/ndewijer/invest-tracker/internal/database"
	"github.com/ndewijer/invest-tracker/internal/nbp"
	"github.com/ndewijer/invest-tracker/internal/repository"
	"github.com/ndewijer/invest-tracker/internal/retry"
	"github.com/ndewijer/invest-tracker/internal/service"
	"github.com/ndewijer/invest-tracker/internal/yahoo"
)

// App holds the wired services.
type App struct {
	DB *sql.DB

	System   *service.SystemService
	Accounts *service.AccountService
	Ledger   *service.LedgerService
	Refresh  *service.RefreshService
	Prices   *service.PriceService
	Fx       *service.FxService
	Bonds    *service.BondRateService

	log zerolog.Logger
}

// New opens the database (which applies pending migrations) and builds every service.
// The bond schedule file is loaded when it exists.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.Database.Path).Msg("database ready")

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	rateRepo := repository.NewExchangeRateRepository(db)
	bondRepo := repository.NewBondRateRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	coverageRepo := repository.NewCoverageRepository(db)

	// Providers
	policy := retry.Policy{
		MaxRetries: uint64(cfg.Providers.Retries),
		Base:       cfg.Providers.Backoff,
		Max:        retry.DefaultPolicy.Max,
		Timeout:    cfg.Providers.Timeout,
	}
	yahooClient := yahoo.NewFinanceClient(cfg.Providers.YahooBaseURL, cfg.Providers.Timeout)
	nbpClient := nbp.NewClient(cfg.Providers.NBPBaseURL, policy)

	// Services
	prices := service.NewPriceService(priceRepo, coverageRepo, yahooClient, policy, log)
	fx := service.NewFxService(rateRepo, coverageRepo, nbpClient, log)
	engine := service.NewValuationEngine(priceRepo, rateRepo, bondRepo, cfg.Refresh.GapTolerance)
	refresh := service.NewRefreshService(
		accountRepo,
		transactionRepo,
		historyRepo,
		engine,
		prices,
		fx,
		cfg.Refresh.Workers,
		log,
	)

	a := &App{
		DB:       db,
		System:   service.NewSystemService(db),
		Accounts: service.NewAccountService(accountRepo, transactionRepo, historyRepo),
		Ledger:   service.NewLedgerService(accountRepo, transactionRepo, fx, refresh, log),
		Refresh:  refresh,
		Prices:   prices,
		Fx:       fx,
		Bonds:    service.NewBondRateService(bondRepo, log),
		log:      log,
	}

	if err := a.loadBondRates(ctx, cfg.Providers.BondRatesFile); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) loadBondRates(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		a.log.Warn().Str("path", path).Msg("bond rates file not found, bond valuation uses stored schedules only")
		return nil
	}
	if _, err := a.Bonds.LoadFile(ctx, path); err != nil {
		return fmt.Errorf("failed to load bond rates: %w", err)
	}
	return nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
