package worker

import (
	"context"
	"errors"

	"cnis.health/nse/records"
)

type storeTransactions interface {
	findExisting(ctx context.Context, task *Task) (*records.Record, error)
	save(ctx context.Context, task *Task, r *records.Record) error
	close()
}

type storeWrapper struct {
	store records.Store
}

func (wrapper *storeWrapper) close() {}

// findExisting returns nil without error when the submission was never stored.
func (wrapper *storeWrapper) findExisting(ctx context.Context, task *Task) (*records.Record, error) {
	fingerprint := task.submission.Fingerprint()
	if fingerprint == "" {
		return nil, nil
	}
	r, err := wrapper.store.FindByFingerprint(ctx, fingerprint)
	if errors.Is(err, records.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func (wrapper *storeWrapper) save(ctx context.Context, task *Task, r *records.Record) error {
	return wrapper.store.Put(ctx, r)
}
