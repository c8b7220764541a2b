package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"gorm.io/gorm"
)

// GormStatusChangeRepository implements audit.Repository using GORM
type GormStatusChangeRepository struct {
	db *gorm.DB
}

// NewGormStatusChangeRepository creates a new GormStatusChangeRepository
func NewGormStatusChangeRepository(db *gorm.DB) *GormStatusChangeRepository {
	return &GormStatusChangeRepository{db: db}
}

// FindByAggregate returns the transition history newest first
func (r *GormStatusChangeRepository) FindByAggregate(ctx context.Context, tenantID uuid.UUID, aggregateType string, aggregateID uuid.UUID) ([]audit.StatusChange, error) {
	var changes []audit.StatusChange
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND aggregate_type = ? AND aggregate_id = ?", tenantID, aggregateType, aggregateID).
		Order("created_at DESC").
		Find(&changes).Error
	return changes, err
}

var _ audit.Repository = (*GormStatusChangeRepository)(nil)
