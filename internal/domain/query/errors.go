package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStatement is returned for templates that are not a SELECT.
	ErrInvalidStatement = errors.New("only SELECT statements are allowed")
	// ErrDangerousStatement is matched by DangerousStatementError.
	ErrDangerousStatement = errors.New("forbidden operation")
	// ErrMultipleStatements is returned when single statement mode is on.
	ErrMultipleStatements = errors.New("multiple statements are not allowed")
	// ErrMissingParameter is matched by MissingParameterError.
	ErrMissingParameter = errors.New("missing query parameter")
	// ErrQueryExecution is matched by QueryExecutionError.
	ErrQueryExecution = errors.New("query execution failed")
)

// DangerousStatementError сообщает, какой запрещённый шаблон найден в запросе.
type DangerousStatementError struct {
	Pattern string
}

func (e *DangerousStatementError) Error() string {
	return fmt.Sprintf("forbidden operation: %s", e.Pattern)
}

func (e *DangerousStatementError) Is(target error) bool {
	return target == ErrDangerousStatement
}

// MissingParameterError is raised in strict mode for an unbound placeholder.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing query parameter: %s", e.Name)
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// QueryExecutionError wraps the store's diagnostic.
type QueryExecutionError struct {
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

func (e *QueryExecutionError) Is(target error) bool {
	return target == ErrQueryExecution
}

// IsRejected reports whether err means the template was refused before reaching the store.
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidStatement) ||
		errors.Is(err, ErrDangerousStatement) ||
		errors.Is(err, ErrMultipleStatements) ||
		errors.Is(err, ErrMissingParameter)
}
