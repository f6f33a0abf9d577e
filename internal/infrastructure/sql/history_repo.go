package sql

import (
	"context"

	"report_bridge/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HistoryRepository хранит историю выполнения шаблонов через GORM.
type HistoryRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewHistoryRepository создает новый GORM репозиторий истории
func NewHistoryRepository(db *gorm.DB, logger *logrus.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Record сохраняет запись о выполнении
func (r *HistoryRepository) Record(ctx context.Context, exec *models.Execution) error {
	return r.db.WithContext(ctx).Create(exec).Error
}

// List получает страницу истории, новые записи первыми
func (r *HistoryRepository) List(ctx context.Context, page, pageSize int) ([]models.Execution, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Execution{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var execs []models.Execution
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&execs).Error
	return execs, total, err
}

// ForReport returns the latest executions of one report.
func (r *HistoryRepository) ForReport(ctx context.Context, reportID string, limit int) ([]models.Execution, error) {
	var execs []models.Execution
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at DESC").
		Limit(limit).
		Find(&execs).Error
	return execs, err
}
