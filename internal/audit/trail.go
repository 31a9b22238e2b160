// Package audit writes a best-effort event trail into the object store.
// Events are fire-and-forget: a write failure is logged and dropped, it
// never fails the request that produced it.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"scriptvault/api/internal/models"
	"scriptvault/api/internal/storage"
)

const auditPrefix = "audit/"

type Trail struct {
	records *storage.RecordStore
	log     zerolog.Logger
}

func NewTrail(records *storage.RecordStore, log zerolog.Logger) *Trail {
	return &Trail{records: records, log: log}
}

// Record persists the event asynchronously. ksuid IDs keep the trail
// roughly time-ordered under the listing prefix.
func (t *Trail) Record(action, actor string, detail map[string]string) {
	if t == nil {
		return
	}

	event := models.AuditEvent{
		ID:     ksuid.New().String(),
		Action: action,
		Actor:  actor,
		Detail: detail,
		At:     time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		key := fmt.Sprintf("%s%s.json", auditPrefix, event.ID)
		if _, err := t.records.Write(ctx, key, event); err != nil {
			t.log.Warn().Err(err).Str("action", action).Msg("audit write dropped")
		}
	}()
}
