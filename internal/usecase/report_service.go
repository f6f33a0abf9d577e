package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"report_bridge/internal/domain/query"
	"report_bridge/internal/domain/report"
	"report_bridge/internal/models"
	"report_bridge/internal/usecase/repository"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	// Лимиты строк по умолчанию
	DefaultReportLimit  = 100000
	DefaultPreviewLimit = query.DefaultLimitCap

	defaultPresignTTL = 15 * time.Minute
	defaultPageSize   = 20
	maxPageSize       = 100
)

var (
	// ErrUnsupportedFormat is returned by Export for an unknown file format.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrExportUnavailable is returned when no export storage is configured.
	ErrExportUnavailable = errors.New("export storage is not configured")
)

// ServiceConfig содержит лимиты и таймауты сервиса отчетов.
type ServiceConfig struct {
	ReportLimit  int
	PreviewLimit int
	Timeout      time.Duration
	PresignTTL   time.Duration
}

// RunResult is the outcome of one template execution.
type RunResult struct {
	Definition  report.Definition `json:"report"`
	Result      query.Result      `json:"result"`
	ExecutionID uuid.UUID         `json:"execution_id"`
	Duration    time.Duration     `json:"duration"`
}

// KPIResult is the outcome for one report of a batch.
type KPIResult struct {
	ReportID string        `json:"report_id"`
	Name     string        `json:"name,omitempty"`
	Result   *query.Result `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
	Err      error         `json:"-"`
}

// ExportResult describes a stored export file.
type ExportResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	RowCount    int    `json:"row_count"`
}

// ExecutionList результат получения истории с пагинацией
type ExecutionList struct {
	Executions []models.Execution `json:"executions"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ReportService runs report templates fetched from the backend and ad-hoc previews.
type ReportService struct {
	executor  *TemplateExecutor
	catalog   *Catalog
	history   repository.ExecutionLog
	storage   repository.FileStorage
	exporters map[string]repository.Exporter
	cfg       ServiceConfig
	logger    *logrus.Logger
}

// NewReportService собирает сервис из зависимостей. history и storage могут быть nil.
func NewReportService(
	executor *TemplateExecutor,
	catalog *Catalog,
	history repository.ExecutionLog,
	storage repository.FileStorage,
	cfg ServiceConfig,
	logger *logrus.Logger,
	exporters ...repository.Exporter,
) *ReportService {
	if cfg.ReportLimit <= 0 {
		cfg.ReportLimit = DefaultReportLimit
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = DefaultPreviewLimit
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = defaultPresignTTL
	}

	byExt := make(map[string]repository.Exporter, len(exporters))
	for _, e := range exporters {
		byExt[e.Extension()] = e
	}

	return &ReportService{
		executor:  executor,
		catalog:   catalog,
		history:   history,
		storage:   storage,
		exporters: byExt,
		cfg:       cfg,
		logger:    logger,
	}
}

// NewScope returns a request-scoped definition cache.
func (s *ReportService) NewScope() *Scope {
	return s.catalog.NewScope()
}

// ListReports возвращает определения отчетов из бэкенда.
func (s *ReportService) ListReports(ctx context.Context, scope *Scope) ([]report.Definition, error) {
	defs, err := scope.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения списка отчетов")
		return nil, fmt.Errorf("ошибка получения списка отчетов: %w", err)
	}
	return defs, nil
}

// Run executes a backend report with the user's values merged over the template defaults.
func (s *ReportService) Run(ctx context.Context, scope *Scope, reportID string, params query.Params) (RunResult, error) {
	def, err := scope.Definition(ctx, reportID)
	if err != nil {
		return RunResult{}, fmt.Errorf("ошибка получения отчета %s: %w", reportID, err)
	}
	return s.run(ctx, models.SourceReport, def, params, s.cfg.ReportLimit)
}

// Preview executes an ad-hoc template, e.g. one generated on the backend, with the preview limit.
func (s *ReportService) Preview(ctx context.Context, sql string, params query.Params) (RunResult, error) {
	def := report.Definition{Name: "preview", SQL: sql}
	return s.run(ctx, models.SourcePreview, def, params, s.cfg.PreviewLimit)
}

// BatchKPI runs several reports in order. A failing report does not stop the others.
func (s *ReportService) BatchKPI(ctx context.Context, scope *Scope, reportIDs []string, params query.Params) []KPIResult {
	out := make([]KPIResult, 0, len(reportIDs))
	for _, id := range reportIDs {
		item := KPIResult{ReportID: id}

		def, err := scope.Definition(ctx, id)
		if err == nil {
			item.Name = def.Name
			var res RunResult
			res, err = s.run(ctx, models.SourceKPI, def, params, s.cfg.PreviewLimit)
			if err == nil {
				item.Result = &res.Result
			}
		}
		if err != nil {
			item.Err = err
			item.Error = err.Error()
		}
		out = append(out, item)
	}
	return out
}

// Export runs a report, renders it in format and stores the file.
func (s *ReportService) Export(ctx context.Context, scope *Scope, reportID string, params query.Params, format string) (ExportResult, error) {
	if s.storage == nil {
		return ExportResult{}, ErrExportUnavailable
	}
	exporter, ok := s.exporters[strings.ToLower(format)]
	if !ok {
		return ExportResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	def, err := scope.Definition(ctx, reportID)
	if err != nil {
		return ExportResult{}, fmt.Errorf("ошибка получения отчета %s: %w", reportID, err)
	}

	run, err := s.run(ctx, models.SourceExport, def, params, s.cfg.ReportLimit)
	if err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, def.Name, run.Result); err != nil {
		return ExportResult{}, fmt.Errorf("ошибка генерации файла: %w", err)
	}

	key := ExportKey(reportID, exporter.Extension())
	if err := s.storage.Save(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Ошибка сохранения файла экспорта")
		return ExportResult{}, fmt.Errorf("ошибка сохранения файла: %w", err)
	}

	url, err := s.storage.GetPresignedURL(ctx, key, s.cfg.PresignTTL)
	if err != nil {
		return ExportResult{}, fmt.Errorf("ошибка получения ссылки на файл: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": reportID,
		"key":       key,
		"rows":      len(run.Result.Rows),
	}).Info("Экспорт отчета сохранен")

	return ExportResult{
		Key:         key,
		URL:         url,
		ContentType: exporter.ContentType(),
		RowCount:    len(run.Result.Rows),
	}, nil
}

// OpenExport streams a stored export file.
func (s *ReportService) OpenExport(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrExportUnavailable
	}
	return s.storage.Get(ctx, key)
}

// History получает историю выполнений с пагинацией
func (s *ReportService) History(ctx context.Context, page, pageSize int) (*ExecutionList, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	list := &ExecutionList{Executions: []models.Execution{}, Page: page, PageSize: pageSize}
	if s.history == nil {
		return list, nil
	}

	execs, total, err := s.history.List(ctx, page, pageSize)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения истории выполнений")
		return nil, fmt.Errorf("ошибка получения истории выполнений: %w", err)
	}
	if execs != nil {
		list.Executions = execs
	}
	list.Total = total
	list.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	return list, nil
}

// ExportKey builds a sortable storage key for an export file.
func ExportKey(reportID, ext string) string {
	return fmt.Sprintf("exports/%s/%s.%s", reportID, strings.ToLower(ulid.Make().String()), ext)
}

func (s *ReportService) run(ctx context.Context, source models.ExecutionSource, def report.Definition, user query.Params, limitCap int) (RunResult, error) {
	params := def.Resolve(user)
	if s.executor.cfg.Missing == query.MissingStrict {
		if missing := def.MissingRequired(params); len(missing) > 0 {
			return RunResult{}, &query.MissingParameterError{Name: missing[0]}
		}
	}

	execCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.executor.Execute(execCtx, def.SQL, params, limitCap)
	elapsed := time.Since(start)

	exec := &models.Execution{
		ID:         uuid.New(),
		ReportID:   def.ID,
		ReportName: def.Name,
		Source:     source,
		SQL:        def.SQL,
		Parameters: models.JSON(params),
		RowCount:   len(res.Rows),
		DurationMs: elapsed.Milliseconds(),
		Status:     models.StatusSucceeded,
	}
	if err != nil {
		exec.Status = models.StatusFailed
		exec.Error = err.Error()
	}
	s.record(ctx, exec)

	logger := s.logger.WithFields(logrus.Fields{
		"report_id": def.ID,
		"source":    source,
		"duration":  elapsed,
	})
	if err != nil {
		logger.WithError(err).Warn("Ошибка выполнения отчета")
		return RunResult{}, err
	}
	logger.WithField("rows", len(res.Rows)).Info("Отчет выполнен")

	return RunResult{Definition: def, Result: res, ExecutionID: exec.ID, Duration: elapsed}, nil
}

// record never fails the run; history is best effort.
func (s *ReportService) record(ctx context.Context, exec *models.Execution) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(context.WithoutCancel(ctx), exec); err != nil {
		s.logger.WithError(err).WithField("execution_id", exec.ID).Warn("Не удалось записать историю выполнения")
	}
}
