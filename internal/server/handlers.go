package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"report_bridge/internal/domain/query"
	"report_bridge/internal/usecase"

	"github.com/labstack/echo/v4"
)

const defaultExportFormat = "xlsx"

var contentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv; charset=utf-8",
}

type runRequest struct {
	Params query.Params `json:"params"`
}

type previewRequest struct {
	SQL    string       `json:"sql"`
	Params query.Params `json:"params"`
}

type batchRequest struct {
	ReportIDs []string     `json:"report_ids"`
	Params    query.Params `json:"params"`
}

// listReports handles listing report definitions
func (s *Server) listReports(c echo.Context) error {
	defs, err := s.service.ListReports(c.Request().Context(), s.service.NewScope())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"reports": defs,
		"count":   len(defs),
	})
}

// runReport executes one backend report
func (s *Server) runReport(c echo.Context) error {
	var req runRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request format"))
	}

	res, err := s.service.Run(c.Request().Context(), s.service.NewScope(), c.Param("id"), req.Params)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, runBody(res))
}

// exportReport renders a report into a stored file
func (s *Server) exportReport(c echo.Context) error {
	var req runRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request format"))
	}

	format := c.QueryParam("format")
	if format == "" {
		format = defaultExportFormat
	}

	res, err := s.service.Export(c.Request().Context(), s.service.NewScope(), c.Param("id"), req.Params, format)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"success":      true,
		"key":          res.Key,
		"url":          res.URL,
		"content_type": res.ContentType,
		"row_count":    res.RowCount,
	})
}

// downloadExport streams a stored export file
func (s *Server) downloadExport(c echo.Context) error {
	key := c.Param("*")
	rc, err := s.service.OpenExport(c.Request().Context(), key)
	if err != nil {
		return s.fail(c, err)
	}
	defer rc.Close()

	ct, ok := contentTypes[strings.ToLower(path.Ext(key))]
	if !ok {
		ct = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	return c.Stream(http.StatusOK, ct, rc)
}

// previewQuery executes an ad-hoc template
func (s *Server) previewQuery(c echo.Context) error {
	var req previewRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request format"))
	}
	if strings.TrimSpace(req.SQL) == "" {
		return c.JSON(http.StatusBadRequest, errorBody("sql is required"))
	}

	res, err := s.service.Preview(c.Request().Context(), req.SQL, req.Params)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, runBody(res))
}

// batchKPI runs several reports, collecting per-report errors
func (s *Server) batchKPI(c echo.Context) error {
	var req batchRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request format"))
	}
	if len(req.ReportIDs) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody("report_ids is required"))
	}

	results := s.service.BatchKPI(c.Request().Context(), s.service.NewScope(), req.ReportIDs, req.Params)
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"results": results,
	})
}

// listExecutions returns the execution history
func (s *Server) listExecutions(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	list, err := s.service.History(c.Request().Context(), page, pageSize)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":     true,
		"executions":  list.Executions,
		"total":       list.Total,
		"page":        list.Page,
		"page_size":   list.PageSize,
		"total_pages": list.TotalPages,
	})
}

func runBody(res usecase.RunResult) map[string]any {
	return map[string]any{
		"success":      true,
		"report_id":    res.Definition.ID,
		"name":         res.Definition.Name,
		"chart_type":   res.Definition.ChartType,
		"headers":      res.Result.Headers,
		"rows":         res.Result.Rows,
		"row_count":    len(res.Result.Rows),
		"execution_id": res.ExecutionID,
		"duration_ms":  res.Duration.Milliseconds(),
	}
}

// decodeBody keeps numbers as json.Number; an empty body is allowed.
func decodeBody(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func errorBody(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

// fail maps service errors to HTTP responses.
func (s *Server) fail(c echo.Context, err error) error {
	status := statusFor(err)
	entry := s.logger.WithError(err).WithField("path", c.Path())
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	return c.JSON(status, errorBody(err.Error()))
}
