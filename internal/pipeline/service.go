package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/cleanse"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/clock"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/config"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/dimension"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/extract"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/fact"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/reconcile"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/validate"
	whdomain "github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse/domain"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  whdomain.Repository
	Cfg   config.Config
	Rules config.QualityRules
	Clock clock.Clock
}

// Service runs the six pipeline stages strictly in sequence within one
// run: extract, validate, cleanse, dimension build, load, reconcile.
// All warehouse writes of a run share one transaction; any fatal error
// rolls it back in full.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  whdomain.Repository
	cfg   config.Config
	rules config.QualityRules
	clock clock.Clock

	validator *validate.Validator
	cleanser  *cleanse.Cleanser
	dims      *dimension.Builder
	facts     *fact.Builder
}

func New(p Params) *Service {
	log := p.Log.Named("pipeline")
	return &Service{
		db:        p.DB,
		log:       log,
		repo:      p.Repo,
		cfg:       p.Cfg,
		rules:     p.Rules,
		clock:     p.Clock,
		validator: validate.New(p.Rules, log),
		cleanser:  cleanse.New(log),
		dims:      dimension.New(p.GenID, log),
		facts:     fact.New(p.GenID),
	}
}

// Run executes one batch and always returns a report, even on failure.
func (s *Service) Run(ctx context.Context) (domain.RunReport, error) {
	started := s.clock.Now()
	report := domain.RunReport{
		BatchID:         uuid.NewString(),
		StartedAt:       started,
		Status:          domain.StatusFailed,
		ViolationCounts: map[string]int{},
	}
	fail := func(err error) (domain.RunReport, error) {
		report.Elapsed = s.clock.Now().Sub(started)
		report.Error = err.Error()
		s.log.Error("run failed", zap.String("batch_id", report.BatchID), zap.Error(err))
		return report, err
	}

	s.log.Info("run started",
		zap.String("batch_id", report.BatchID),
		zap.String("source", s.cfg.SourceCSV),
	)

	rows, columns, err := extract.ReadFile(s.cfg.SourceCSV)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrStorage, err))
	}
	report.RowsRead = len(rows)

	accepted, violations, err := s.validator.Check(rows, columns)
	report.Violations = violations
	report.ViolationCounts = domain.CountViolations(violations)
	report.RowsRejected = len(rows) - len(accepted)
	if err != nil {
		return fail(err)
	}

	cleansed, removed := s.cleanser.Run(accepted)
	report.RowsAccepted = len(cleansed)
	report.DuplicatesRemoved = removed

	set := s.dims.Build(cleansed)
	report.AttributeConflicts = set.Conflicts

	factsWritten, err := s.load(ctx, set, cleansed, report.BatchID)
	if err != nil {
		return fail(err)
	}
	report.FactsWritten = factsWritten

	counts, err := s.repo.Counts(ctx, s.db)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrStorage, err))
	}
	report.WarehouseCustomers = counts.Customers
	report.WarehouseProducts = counts.Products
	report.WarehouseLocations = counts.Locations
	report.WarehouseDates = counts.Dates
	report.WarehouseFacts = counts.Facts

	warehouseTotals, err := s.repo.Aggregates(ctx, s.db, report.BatchID)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrStorage, err))
	}
	report.Reconciliation = reconcile.Compare(
		reconcile.SourceTotals(cleansed),
		warehouseTotals,
		s.rules.Tolerance,
	)
	report.Elapsed = s.clock.Now().Sub(started)

	if !report.ReconciliationPassed() {
		// Data stays committed; the mismatch is an audit signal, not a rollback.
		report.Status = domain.StatusReconciliationMismatch
		report.Error = domain.ErrReconciliation.Error()
		s.log.Warn("reconciliation mismatch",
			zap.String("batch_id", report.BatchID),
			zap.Any("reconciliation", report.Reconciliation),
		)
		return report, domain.ErrReconciliation
	}

	report.Status = domain.StatusSucceeded
	s.log.Info("run succeeded",
		zap.String("batch_id", report.BatchID),
		zap.Int("facts_written", report.FactsWritten),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// load writes dimensions then facts inside a single transaction. Key maps
// are read back after the dimension upserts so facts reference the
// warehouse's surrogate keys even when a natural key predates this run.
func (s *Service) load(ctx context.Context, set *dimension.Set, records []domain.Record, batchID string) (int, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, fmt.Errorf("%w: begin: %v", domain.ErrStorage, tx.Error)
	}

	written, err := s.loadTx(ctx, tx, set, records, batchID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, domain.ErrUnresolvedReference) {
			return 0, err
		}
		if db.IsDuplicateKeyErr(err) {
			return 0, fmt.Errorf("%w: duplicate key: %v", domain.ErrStorage, err)
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("%w: commit: %v", domain.ErrStorage, err)
	}
	return written, nil
}

func (s *Service) loadTx(ctx context.Context, tx *gorm.DB, set *dimension.Set, records []domain.Record, batchID string) (int, error) {
	if s.cfg.ResetFacts {
		if err := s.repo.ResetFacts(ctx, tx); err != nil {
			return 0, err
		}
	}

	// All four dimension batches land before any fact row.
	if err := s.repo.UpsertCustomers(ctx, tx, set.Customers); err != nil {
		return 0, err
	}
	if err := s.repo.UpsertProducts(ctx, tx, set.Products); err != nil {
		return 0, err
	}
	if err := s.repo.UpsertLocations(ctx, tx, set.Locations); err != nil {
		return 0, err
	}
	if err := s.repo.UpsertDates(ctx, tx, set.Dates); err != nil {
		return 0, err
	}

	keys := fact.KeyMaps{}
	var err error
	if keys.Customers, err = s.repo.CustomerKeys(ctx, tx); err != nil {
		return 0, err
	}
	if keys.Products, err = s.repo.ProductKeys(ctx, tx); err != nil {
		return 0, err
	}
	if keys.Locations, err = s.repo.LocationKeys(ctx, tx); err != nil {
		return 0, err
	}
	if keys.Dates, err = s.repo.DateKeys(ctx, tx); err != nil {
		return 0, err
	}

	facts, err := s.facts.Build(records, keys, batchID, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if err := s.repo.InsertFacts(ctx, tx, facts); err != nil {
		return 0, err
	}
	return len(facts), nil
}
