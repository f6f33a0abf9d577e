package usecase

import (
	"context"
	"time"

	"report_bridge/internal/domain/query"
	"report_bridge/internal/usecase/repository"

	"github.com/sirupsen/logrus"
)

// Outcome labels used when reporting executions.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// ExecutionObserver receives one notification per template execution.
type ExecutionObserver interface {
	Observe(outcome string, duration time.Duration, rows int)
}

// ExecutorConfig содержит настройки переписывания шаблона, общие для всех вызовов.
type ExecutorConfig struct {
	TablePrefix     string
	Missing         query.MissingParams
	SingleStatement bool
}

// TemplateExecutor validates, rewrites and runs untrusted SQL templates.
// It keeps no per-call state and is safe for concurrent use when the store is.
type TemplateExecutor struct {
	store    repository.QueryExecutor
	cfg      ExecutorConfig
	logger   *logrus.Logger
	observer ExecutionObserver
	now      func() time.Time
}

// NewTemplateExecutor создает исполнитель шаблонов поверх хранилища.
func NewTemplateExecutor(store repository.QueryExecutor, cfg ExecutorConfig, logger *logrus.Logger) *TemplateExecutor {
	return &TemplateExecutor{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithObserver attaches a metrics observer.
func (e *TemplateExecutor) WithObserver(o ExecutionObserver) *TemplateExecutor {
	e.observer = o
	return e
}

// WithClock overrides the clock used for the days cutoff.
func (e *TemplateExecutor) WithClock(now func() time.Time) *TemplateExecutor {
	e.now = now
	return e
}

// Rewrite returns the statement that Execute would send to the store.
func (e *TemplateExecutor) Rewrite(template string, params query.Params, limitCap int) (query.Query, error) {
	return query.Rewrite(template, params, query.Options{
		TablePrefix:     e.cfg.TablePrefix,
		LimitCap:        limitCap,
		Missing:         e.cfg.Missing,
		SingleStatement: e.cfg.SingleStatement,
		Dialect:         e.store.Dialect(),
		Now:             e.now,
	})
}

// Execute runs template against the store with at most limitCap rows.
// Rejected templates never reach the store.
func (e *TemplateExecutor) Execute(ctx context.Context, template string, params query.Params, limitCap int) (query.Result, error) {
	start := time.Now()

	q, err := e.Rewrite(template, params, limitCap)
	if err != nil {
		e.logger.WithError(err).Warn("SQL template rejected")
		e.observe(OutcomeRejected, time.Since(start), 0)
		return query.Result{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"sql":  q.SQL,
		"args": len(q.Args),
	}).Debug("Executing rewritten query")

	columns, values, err := e.store.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		e.logger.WithError(err).Error("Query execution failed")
		e.observe(OutcomeFailed, time.Since(start), 0)
		return query.Result{}, &query.QueryExecutionError{Err: err}
	}

	res := query.Shape(columns, values)
	e.observe(OutcomeSucceeded, time.Since(start), len(res.Rows))
	return res, nil
}

func (e *TemplateExecutor) observe(outcome string, d time.Duration, rows int) {
	if e.observer != nil {
		e.observer.Observe(outcome, d, rows)
	}
}
