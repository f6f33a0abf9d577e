package usecase

import (
	"context"
	"io"
	"time"

	"report_bridge/internal/domain/query"
	"report_bridge/internal/domain/report"
	"report_bridge/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of the QueryExecutor interface
type MockStore struct {
	mock.Mock
	dialect query.Dialect
}

func (m *MockStore) Query(ctx context.Context, sql string, args ...any) ([]string, [][]any, error) {
	ret := m.Called(ctx, sql, args)
	var cols []string
	if c := ret.Get(0); c != nil {
		cols = c.([]string)
	}
	var rows [][]any
	if r := ret.Get(1); r != nil {
		rows = r.([][]any)
	}
	return cols, rows, ret.Error(2)
}

func (m *MockStore) Dialect() query.Dialect {
	if m.dialect == nil {
		return query.MySQL{}
	}
	return m.dialect
}

// MockSource is a mock implementation of the ReportSource interface
type MockSource struct {
	mock.Mock
}

func (m *MockSource) List(ctx context.Context) ([]report.Definition, error) {
	args := m.Called(ctx)
	return args.Get(0).([]report.Definition), args.Error(1)
}

func (m *MockSource) Get(ctx context.Context, id string) (report.Definition, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(report.Definition), args.Error(1)
}

// MockCache is a mock implementation of the DefinitionCache interface
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (report.Definition, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(report.Definition), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, def report.Definition, ttl time.Duration) error {
	args := m.Called(ctx, key, def, ttl)
	return args.Error(0)
}

// MockHistory is a mock implementation of the ExecutionLog interface
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Record(ctx context.Context, exec *models.Execution) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}

func (m *MockHistory) List(ctx context.Context, page, pageSize int) ([]models.Execution, int64, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]models.Execution), args.Get(1).(int64), args.Error(2)
}

// MockStorage is a mock implementation of the FileStorage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(ctx context.Context, key string, reader io.Reader) error {
	args := m.Called(ctx, key, reader)
	return args.Error(0)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStorage) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	args := m.Called(ctx, key, expiration)
	return args.String(0), args.Error(1)
}

type fakeExporter struct{}

func (fakeExporter) Export(w io.Writer, title string, res query.Result) error {
	_, err := io.WriteString(w, title)
	return err
}

func (fakeExporter) ContentType() string { return "text/plain" }

func (fakeExporter) Extension() string { return "txt" }

type recordingObserver struct {
	outcomes []string
	rows     []int
}

func (o *recordingObserver) Observe(outcome string, _ time.Duration, rows int) {
	o.outcomes = append(o.outcomes, outcome)
	o.rows = append(o.rows, rows)
}

func setupTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(io.Discard)
	return logger
}
