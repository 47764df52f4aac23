package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/usecase"
)

// backtestRunGorm stores backtest reports in the backtest_runs table.
type backtestRunGorm struct {
	db *gorm.DB
}

var _ usecase.BacktestStore = (*backtestRunGorm)(nil)

func NewBacktestRunRepository(db *gorm.DB) *backtestRunGorm {
	return &backtestRunGorm{db: db}
}

// BacktestRunModel is one stored run. Parameters, samples and failures are kept as JSON text.
type BacktestRunModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	Total     int       `gorm:"not null"`
	Correct   int       `gorm:"not null"`
	Accuracy  float64   `gorm:"not null"`
	Precision float64   `gorm:"not null"`
	Recall    float64   `gorm:"not null"`
	F1        float64   `gorm:"column:f1;not null"`
	Params    string    `gorm:"type:text;not null"`
	Samples   string    `gorm:"type:text;not null"`
	Failures  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (BacktestRunModel) TableName() string {
	return "backtest_runs"
}

// SaveRun inserts the report, replacing a run with the same ID.
func (r *backtestRunGorm) SaveRun(ctx context.Context, report *entity.BacktestReport) error {
	params, err := json.Marshal(report.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	samples, err := json.Marshal(report.Samples)
	if err != nil {
		return fmt.Errorf("encode samples: %w", err)
	}
	failures, err := json.Marshal(report.Failures)
	if err != nil {
		return fmt.Errorf("encode failures: %w", err)
	}
	m := BacktestRunModel{
		ID:        report.ID,
		StartDate: report.Start,
		EndDate:   report.End,
		Total:     report.Total,
		Correct:   report.Correct,
		Accuracy:  report.Accuracy,
		Precision: report.Precision,
		Recall:    report.Recall,
		F1:        report.F1,
		Params:    string(params),
		Samples:   string(samples),
		Failures:  string(failures),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
}

// FindRun loads a stored run by ID.
func (r *backtestRunGorm) FindRun(ctx context.Context, id string) (*entity.BacktestReport, error) {
	var m BacktestRunModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	report := &entity.BacktestReport{
		ID:        m.ID,
		Start:     m.StartDate.UTC(),
		End:       m.EndDate.UTC(),
		Total:     m.Total,
		Correct:   m.Correct,
		Accuracy:  m.Accuracy,
		Precision: m.Precision,
		Recall:    m.Recall,
		F1:        m.F1,
	}
	if err := json.Unmarshal([]byte(m.Params), &report.Params); err != nil {
		return nil, fmt.Errorf("decode params of run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(m.Samples), &report.Samples); err != nil {
		return nil, fmt.Errorf("decode samples of run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(m.Failures), &report.Failures); err != nil {
		return nil, fmt.Errorf("decode failures of run %s: %w", id, err)
	}
	return report, nil
}
