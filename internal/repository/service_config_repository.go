package repository

import (
	"context"

	"alert-relay/internal/domain/entity"
)

// ServiceConfigRepository persists messaging service configurations and the
// delivery outcome snapshot of their most recent attempt.
//
// RecordFailure and RecordSuccess are the delivery state store: they run
// inside a scoped atomic transaction (joining an enclosing one when the
// caller already opened it), overwrite the whole failure field group as a
// single unit, and treat a missing record as an expected race with
// concurrent deletion rather than an error.
type ServiceConfigRepository interface {
	Get(ctx context.Context, id int64) (*entity.ServiceConfig, error)
	List(ctx context.Context) ([]*entity.ServiceConfig, error)
	Create(ctx context.Context, config *entity.ServiceConfig) error
	Update(ctx context.Context, config *entity.ServiceConfig) error
	Delete(ctx context.Context, id int64) error

	// RecordFailure stores one failure snapshot on the config identified by
	// id, replacing any previous snapshot. A missing record is a no-op.
	RecordFailure(ctx context.Context, id int64, snap entity.FailureSnapshot) error

	// RecordSuccess clears every failure field on the config identified by
	// id in one atomic write. A missing record is a no-op.
	RecordSuccess(ctx context.Context, id int64) error
}
