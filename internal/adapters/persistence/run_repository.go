package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

// GormRunRepository implements RunRepository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GORM run repository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Create persists a new run
func (r *GormRunRepository) Create(ctx context.Context, run *simulation.Run) error {
	model, err := r.runToModel(run)
	if err != nil {
		return fmt.Errorf("failed to convert run to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Update saves the run's outcome
func (r *GormRunRepository) Update(ctx context.Context, run *simulation.Run) error {
	model, err := r.runToModel(run)
	if err != nil {
		return fmt.Errorf("failed to convert run to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// FindByID retrieves a run by ID
func (r *GormRunRepository) FindByID(ctx context.Context, id string) (*simulation.Run, error) {
	var model RunModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, fmt.Errorf("failed to find run: %w", result.Error)
	}

	return r.modelToRun(&model)
}

// List retrieves the most recent runs, newest first
func (r *GormRunRepository) List(ctx context.Context, limit int) ([]*simulation.Run, error) {
	var models []RunModel
	result := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list runs: %w", result.Error)
	}

	runs := make([]*simulation.Run, 0, len(models))
	for i := range models {
		run, err := r.modelToRun(&models[i])
		if err != nil {
			continue // Skip unreadable runs
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *GormRunRepository) runToModel(run *simulation.Run) (*RunModel, error) {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var final string
	if run.Final != nil {
		bytes, err := json.Marshal(run.Final)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal final statistics: %w", err)
		}
		final = string(bytes)
	}

	return &RunModel{
		ID:          run.ID,
		Preset:      run.Preset,
		Params:      string(params),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		EndReason:   string(run.EndReason),
		DaysElapsed: run.DaysElapsed,
		Final:       final,
	}, nil
}

func (r *GormRunRepository) modelToRun(model *RunModel) (*simulation.Run, error) {
	run := &simulation.Run{
		ID:          model.ID,
		Preset:      model.Preset,
		StartedAt:   model.StartedAt,
		FinishedAt:  model.FinishedAt,
		EndReason:   simulation.EndReason(model.EndReason),
		DaysElapsed: model.DaysElapsed,
	}

	if model.Params != "" {
		if err := json.Unmarshal([]byte(model.Params), &run.Params); err != nil {
			return nil, fmt.Errorf("invalid params for run %s: %w", model.ID, err)
		}
	}
	if model.Final != "" {
		var final stats.Snapshot
		if err := json.Unmarshal([]byte(model.Final), &final); err != nil {
			return nil, fmt.Errorf("invalid final statistics for run %s: %w", model.ID, err)
		}
		run.Final = &final
	}
	return run, nil
}
