package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/internal/repo"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
)

type gormRepository struct {
	repo.Base
}

// NewRepository builds the GORM-backed audit repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	return r.DB(ctx).Create(entry).Error
}
