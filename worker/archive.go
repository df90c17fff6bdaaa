package worker

import (
	"context"
	"encoding/json"
	"time"

	"cnis.health/nse/records"
)

// Archiver is satisfied by *s3client.Client.
type Archiver interface {
	Key(recordID string, createdAt time.Time) string
	Archive(ctx context.Context, key string, body []byte) error
}

type archiveTransactions interface {
	archive(ctx context.Context, task *Task, r *records.Record) error
	close()
}

type archiveWrapper struct {
	archiver Archiver
}

func (wrapper *archiveWrapper) close() {}

func (wrapper *archiveWrapper) archive(ctx context.Context, task *Task, r *records.Record) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return wrapper.archiver.Archive(ctx, wrapper.archiver.Key(r.ID, r.CreatedAt), body)
}
