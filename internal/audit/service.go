package audit

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/veloplane-b2b/orderdesk-backend/pkg/errors"
)

// Entry captures one state-changing operation for the append-only log.
// OldValues/NewValues are arbitrary snapshots serialized as JSON.
type Entry struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	OldValues    any
	NewValues    any
}

// Service writes audit records. Records are written inside the caller's
// transaction so a rolled-back operation leaves no trace.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
}

type service struct {
	repo Repository
}

// NewService wires the audit sink with its repository.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.Actor == "" || entry.Action == "" || entry.ResourceType == "" || entry.ResourceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit entry requires actor, action and resource identifiers")
	}

	oldValues, err := marshalSnapshot(entry.OldValues)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize audit old values")
	}
	newValues, err := marshalSnapshot(entry.NewValues)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize audit new values")
	}

	record := &models.AuditLogEntry{
		Actor:        entry.Actor,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		OldValues:    oldValues,
		NewValues:    newValues,
	}

	target := s.repo
	if tx != nil {
		target = s.repo.WithTx(tx)
	}
	if err := target.Create(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
	}
	return nil
}

func marshalSnapshot(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
