package integrity

import (
	"context"

	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/reconcile"
	"github.com/sohosai/hyperdashi-server/feature/integrity/checks"
)

// Report statuses.
const (
	StatusOK    = "ok"
	StatusDrift = "drift"
	StatusFixed = "fixed"
)

// Report is the outcome of one integrity run.
type Report struct {
	Status   string          `json:"status"`
	Plan     *reconcile.Plan `json:"plan"`
	Executed int             `json:"executed"`
}

// Service runs the integrity checks against one database.
type Service struct {
	checks   []reconcile.Check
	repairer *Repairer
	logger   *zap.Logger
}

// Inspectable is a database whose schema the schema check can read.
type Inspectable interface {
	database.Database
	checks.SchemaSource
}

// NewService creates a new integrity service.
func NewService(db Inspectable, counter checks.CounterReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		checks: []reconcile.Check{
			checks.NewLoanFlags(db),
			checks.NewLabelCounter(db, counter),
			checks.NewSchema(db),
		},
		repairer: NewRepairer(db),
		logger:   logger,
	}
}

// Plan runs every check without changing anything.
func (s *Service) Plan(ctx context.Context) (*reconcile.Plan, error) {
	return reconcile.BuildPlan(ctx, s.checks...)
}

// Apply executes plan when confirmed.
func (s *Service) Apply(ctx context.Context, plan *reconcile.Plan, opts reconcile.Options) (int, error) {
	executed, err := reconcile.ApplyPlan(ctx, s.repairer, plan, opts)
	if err != nil {
		return executed, err
	}
	if executed > 0 {
		s.logger.Info("Integrity repairs applied", zap.Int("count", executed))
	}
	return executed, nil
}

// Run plans and, when fix is set, applies every repairable action.
func (s *Service) Run(ctx context.Context, fix bool) (*Report, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range plan.Findings {
		s.logger.Warn("Integrity violation",
			zap.String("check", f.Check),
			zap.String("key", f.Key),
			zap.String("problem", f.Problem))
	}

	report := &Report{Status: StatusOK, Plan: plan}
	if plan.Summary.Clean() {
		return report, nil
	}
	report.Status = StatusDrift
	if !fix {
		return report, nil
	}

	report.Executed, err = s.Apply(ctx, plan, reconcile.Options{Confirmed: true})
	if err != nil {
		return nil, err
	}
	// Schema findings carry no action, so only full coverage counts as fixed.
	if report.Executed == plan.Summary.Findings {
		report.Status = StatusFixed
	}
	return report, nil
}
