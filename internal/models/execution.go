package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExecutionSource указывает, откуда был запущен шаблон.
type ExecutionSource string

const (
	SourceReport  ExecutionSource = "report"
	SourcePreview ExecutionSource = "preview"
	SourceKPI     ExecutionSource = "kpi"
	SourceExport  ExecutionSource = "export"
)

// ExecutionStatus итог выполнения.
type ExecutionStatus string

const (
	StatusSucceeded ExecutionStatus = "succeeded"
	StatusFailed    ExecutionStatus = "failed"
)

// Execution is one recorded run of a SQL template.
type Execution struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time       `json:"created_at" gorm:"index"`
	ReportID   string          `json:"report_id,omitempty" gorm:"size:255;index"`
	ReportName string          `json:"report_name,omitempty" gorm:"size:255"`
	Source     ExecutionSource `json:"source" gorm:"size:20;not null"`
	SQL        string          `json:"sql" gorm:"type:text"`
	Parameters JSON            `json:"parameters,omitempty"`
	RowCount   int             `json:"row_count"`
	DurationMs int64           `json:"duration_ms"`
	Status     ExecutionStatus `json:"status" gorm:"size:20;not null"`
	Error      string          `json:"error,omitempty" gorm:"type:text"`
}

// TableName specifies the table name for the Execution model
func (Execution) TableName() string {
	return "executions"
}

// BeforeCreate assigns an id when the caller did not.
func (e *Execution) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Succeeded reports whether the execution finished without error.
func (e *Execution) Succeeded() bool {
	return e.Status == StatusSucceeded
}

// JSON хранит произвольный JSON-объект в текстовой колонке.
type JSON map[string]any

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}

	return json.Unmarshal(bytes, j)
}

// GormDataType keeps the column portable between postgres and sqlite.
func (JSON) GormDataType() string {
	return "text"
}
