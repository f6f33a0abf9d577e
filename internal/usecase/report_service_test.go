package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"report_bridge/internal/domain/query"
	"report_bridge/internal/domain/report"
	"report_bridge/internal/models"
	"report_bridge/internal/usecase/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store   *MockStore
	source  *MockSource
	history *MockHistory
	storage *MockStorage
	service *ReportService
}

func newServiceFixture(cfg ExecutorConfig) *serviceFixture {
	f := &serviceFixture{
		store:   new(MockStore),
		source:  new(MockSource),
		history: new(MockHistory),
		storage: new(MockStorage),
	}
	logger := setupTestLogger()
	executor := NewTemplateExecutor(f.store, cfg, logger)
	catalog := NewCatalog(f.source, nil, 0, logger)
	f.service = NewReportService(executor, catalog, f.history, f.storage,
		ServiceConfig{ReportLimit: 100, PreviewLimit: 10, Timeout: time.Second}, logger, fakeExporter{})
	return f
}

func TestRunMergesDefaultsAndRecords(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	def := report.Definition{
		ID:   "5",
		Name: "Course activity",
		SQL:  "SELECT userid FROM mdl_log WHERE courseid = :courseid AND action = :action",
		Parameters: []report.Parameter{
			{Name: "courseid", Default: 1},
			{Name: "action", Default: "viewed"},
		},
	}
	f.source.On("Get", mock.Anything, "5").Return(def, nil)
	f.store.On("Query", mock.Anything,
		"SELECT userid FROM mdl_log WHERE courseid = ? AND action = ? LIMIT 100",
		[]any{42, "viewed"},
	).Return([]string{"userid"}, [][]any{{int64(3)}}, nil)
	f.history.On("Record", mock.Anything, mock.MatchedBy(func(e *models.Execution) bool {
		return e.ReportID == "5" && e.Source == models.SourceReport &&
			e.Status == models.StatusSucceeded && e.RowCount == 1
	})).Return(nil)

	res, err := f.service.Run(context.Background(), f.service.NewScope(), "5", query.Params{"courseid": 42})
	require.NoError(t, err)

	assert.Equal(t, def, res.Definition)
	assert.Equal(t, []string{"userid"}, res.Result.Headers)
	assert.NotZero(t, res.ExecutionID)
	f.store.AssertExpectations(t)
	f.history.AssertExpectations(t)
}

func TestRunHistoryFailureDoesNotFailRun(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	f.source.On("Get", mock.Anything, "1").Return(report.Definition{ID: "1", SQL: "SELECT 1 AS one"}, nil)
	f.store.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return([]string{"one"}, [][]any{{int64(1)}}, nil)
	f.history.On("Record", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	res, err := f.service.Run(context.Background(), f.service.NewScope(), "1", nil)
	require.NoError(t, err)
	assert.Len(t, res.Result.Rows, 1)
}

func TestRunUnknownReport(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	f.source.On("Get", mock.Anything, "x").Return(report.Definition{}, repository.ErrReportNotFound)

	_, err := f.service.Run(context.Background(), f.service.NewScope(), "x", nil)
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
	f.history.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestRunStrictRequiresParameters(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{Missing: query.MissingStrict})
	def := report.Definition{
		ID:         "2",
		SQL:        "SELECT * FROM mdl_course WHERE category = :cat",
		Parameters: []report.Parameter{{Name: "cat", Required: true}},
	}
	f.source.On("Get", mock.Anything, "2").Return(def, nil)

	_, err := f.service.Run(context.Background(), f.service.NewScope(), "2", nil)
	assert.ErrorIs(t, err, query.ErrMissingParameter)
	f.store.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunRecordsFailure(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	f.source.On("Get", mock.Anything, "3").Return(report.Definition{ID: "3", SQL: "DELETE FROM mdl_user"}, nil)
	f.history.On("Record", mock.Anything, mock.MatchedBy(func(e *models.Execution) bool {
		return e.Status == models.StatusFailed && e.Error != ""
	})).Return(nil)

	_, err := f.service.Run(context.Background(), f.service.NewScope(), "3", nil)
	assert.ErrorIs(t, err, query.ErrInvalidStatement)
	f.history.AssertExpectations(t)
}

func TestPreviewUsesPreviewLimit(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	f.store.On("Query", mock.Anything, "SELECT id FROM mdl_user LIMIT 10", []any{}).
		Return([]string{"id"}, [][]any{}, nil)
	f.history.On("Record", mock.Anything, mock.MatchedBy(func(e *models.Execution) bool {
		return e.Source == models.SourcePreview
	})).Return(nil)

	res, err := f.service.Preview(context.Background(), "SELECT id FROM mdl_user", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Result.Rows)
	f.store.AssertExpectations(t)
}

func TestBatchKPIContinuesAfterFailure(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	f.source.On("Get", mock.Anything, "ok").Return(report.Definition{ID: "ok", Name: "Users", SQL: "SELECT COUNT(*) AS n FROM mdl_user"}, nil)
	f.source.On("Get", mock.Anything, "bad").Return(report.Definition{ID: "bad", SQL: "DROP TABLE mdl_user"}, nil)
	f.source.On("Get", mock.Anything, "gone").Return(report.Definition{}, repository.ErrReportNotFound)
	f.store.On("Query", mock.Anything, "SELECT COUNT(*) AS n FROM mdl_user LIMIT 10", []any{}).
		Return([]string{"n"}, [][]any{{int64(12)}}, nil)
	f.history.On("Record", mock.Anything, mock.Anything).Return(nil)

	out := f.service.BatchKPI(context.Background(), f.service.NewScope(), []string{"bad", "gone", "ok"}, nil)
	require.Len(t, out, 3)

	assert.ErrorIs(t, out[0].Err, query.ErrInvalidStatement)
	assert.NotEmpty(t, out[0].Error)
	assert.ErrorIs(t, out[1].Err, repository.ErrReportNotFound)
	require.NotNil(t, out[2].Result)
	assert.Equal(t, "Users", out[2].Name)
	assert.Equal(t, int64(12), out[2].Result.Rows[0]["n"])
	assert.Nil(t, out[2].Err)
}

func TestExportSavesFile(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	f.source.On("Get", mock.Anything, "8").Return(report.Definition{ID: "8", Name: "Grades", SQL: "SELECT 1 AS one"}, nil)
	f.store.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return([]string{"one"}, [][]any{{int64(1)}}, nil)
	f.history.On("Record", mock.Anything, mock.Anything).Return(nil)

	var saved string
	f.storage.On("Save", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "exports/8/") && strings.HasSuffix(key, ".txt")
	}), mock.Anything).Run(func(args mock.Arguments) {
		b, _ := io.ReadAll(args.Get(2).(io.Reader))
		saved = string(b)
	}).Return(nil)
	f.storage.On("GetPresignedURL", mock.Anything, mock.Anything, defaultPresignTTL).
		Return("https://files.example.com/signed", nil)

	res, err := f.service.Export(context.Background(), f.service.NewScope(), "8", nil, "TXT")
	require.NoError(t, err)

	assert.Equal(t, "Grades", saved)
	assert.Equal(t, "https://files.example.com/signed", res.URL)
	assert.Equal(t, "text/plain", res.ContentType)
	assert.Equal(t, 1, res.RowCount)
	f.storage.AssertExpectations(t)
}

func TestExportUnsupportedFormat(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	_, err := f.service.Export(context.Background(), f.service.NewScope(), "8", nil, "pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenExport(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	f.storage.On("Get", mock.Anything, "exports/1/a.txt").
		Return(io.NopCloser(bytes.NewBufferString("data")), nil)

	rc, err := f.service.OpenExport(context.Background(), "exports/1/a.txt")
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "data", string(b))
}

func TestHistoryPagination(t *testing.T) {
	f := newServiceFixture(ExecutorConfig{})
	f.history.On("List", mock.Anything, 1, 100).
		Return([]models.Execution{{ReportID: "1"}}, int64(250), nil)

	list, err := f.service.History(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 100, list.PageSize)
	assert.Equal(t, 3, list.TotalPages)
	assert.Len(t, list.Executions, 1)
}

func TestHistoryWithoutLog(t *testing.T) {
	logger := setupTestLogger()
	svc := NewReportService(NewTemplateExecutor(new(MockStore), ExecutorConfig{}, logger),
		NewCatalog(new(MockSource), nil, 0, logger), nil, nil, ServiceConfig{}, logger)

	list, err := svc.History(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list.Executions)

	_, err = svc.Export(context.Background(), svc.NewScope(), "1", nil, "xlsx")
	assert.ErrorIs(t, err, ErrExportUnavailable)
}

func TestExportKey(t *testing.T) {
	a := ExportKey("12", "xlsx")
	b := ExportKey("12", "xlsx")
	assert.True(t, strings.HasPrefix(a, "exports/12/"))
	assert.True(t, strings.HasSuffix(a, ".xlsx"))
	assert.NotEqual(t, a, b)
}
