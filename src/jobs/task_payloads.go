package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypePruneOrphanTags = "tags:prune-orphans"

// PruneOrphanTagsPayload bounds the prune to tags created before OlderThan so
// a tag resolved for a template that is still being written survives.
type PruneOrphanTagsPayload struct {
	OlderThan time.Time `json:"older_than"`
}

func NewPruneOrphanTagsTask(olderThan time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(PruneOrphanTagsPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePruneOrphanTags, payload), nil
}

// PruneTaskID collapses prunes scheduled within the same minute into one task.
func PruneTaskID(runAt time.Time) string {
	return fmt.Sprintf("prune-orphan-tags-%d", runAt.Truncate(time.Minute).Unix())
}
