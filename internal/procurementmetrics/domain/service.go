package domain

import (
	"context"
	"errors"
)

// Service derives dashboard metrics from current workflow state. Snapshot is
// read-only; PublishSnapshot additionally pushes the fresh result to
// subscribers after a mutation changed one of the underlying counts.
type Service interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	PublishSnapshot(ctx context.Context)
}

var ErrInvalidActor = errors.New("invalid_actor")
