package repository

import (
	"context"
	"errors"
	"io"
	"time"

	"report_bridge/internal/domain/query"
	"report_bridge/internal/domain/report"
	"report_bridge/internal/models"
)

var (
	// ErrReportNotFound is returned by a ReportSource for an unknown report id.
	ErrReportNotFound = errors.New("report not found")
	// ErrSourceUnavailable is matched by errors from an unreachable or failing ReportSource.
	ErrSourceUnavailable = errors.New("report source unavailable")
)

// QueryExecutor executes a read-only query and returns column names and row values.
type QueryExecutor interface {
	Query(ctx context.Context, sql string, args ...any) (columns []string, rows [][]any, err error)
	Dialect() query.Dialect
}

// ReportSource provides report definitions owned by the remote backend.
type ReportSource interface {
	List(ctx context.Context) ([]report.Definition, error)
	Get(ctx context.Context, id string) (report.Definition, error)
}

// DefinitionCache is a shared cache of report definitions. Implementations
// return ok=false on a miss.
type DefinitionCache interface {
	Get(ctx context.Context, key string) (report.Definition, bool, error)
	Set(ctx context.Context, key string, def report.Definition, ttl time.Duration) error
}

// ExecutionLog хранит историю выполнения шаблонов.
type ExecutionLog interface {
	Record(ctx context.Context, exec *models.Execution) error
	List(ctx context.Context, page, pageSize int) ([]models.Execution, int64, error)
}

// Exporter renders a result into a file format.
type Exporter interface {
	Export(w io.Writer, title string, res query.Result) error
	ContentType() string
	Extension() string
}

// FileStorage stores rendered exports.
type FileStorage interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}
