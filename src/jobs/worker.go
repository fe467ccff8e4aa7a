package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TagReferences interface {
	ReferencedTagIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

type OrphanTagStore interface {
	DeleteUnreferenced(ctx context.Context, keep []primitive.ObjectID, usedBefore time.Time) (int64, error)
}

// TagPruner removes tags no template points at any more. Template creation
// resolves tags before inserting the template and deletion never touches
// tags, so both can leave orphans behind. Tags resolved after the cut-off are
// kept even when unreferenced, since a template insert may still be in flight.
type TagPruner struct {
	templates TagReferences
	tags      OrphanTagStore
	logger    *slog.Logger
}

func NewTagPruner(templates TagReferences, tags OrphanTagStore, logger *slog.Logger) *TagPruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagPruner{templates: templates, tags: tags, logger: logger}
}

func (p *TagPruner) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	keep, err := p.templates.ReferencedTagIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load referenced tags: %w", err)
	}
	n, err := p.tags.DeleteUnreferenced(ctx, keep, olderThan)
	if err != nil {
		return 0, fmt.Errorf("delete orphan tags: %w", err)
	}
	return n, nil
}

func (p *TagPruner) HandlePruneOrphanTagsTask(ctx context.Context, t *asynq.Task) error {
	var payload PruneOrphanTagsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		p.logger.Error("decode prune payload", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	n, err := p.Prune(ctx, payload.OlderThan)
	if err != nil {
		p.logger.Error("prune orphan tags", "error", err)
		return err
	}
	p.logger.Info("pruned orphan tags", "deleted", n, "olderThan", payload.OlderThan)
	return nil
}

// RegisterHandlers binds every task type this service processes.
func RegisterHandlers(mux *asynq.ServeMux, pruner *TagPruner) {
	mux.HandleFunc(TypePruneOrphanTags, pruner.HandlePruneOrphanTagsTask)
}

// NewServer builds the in-process worker. It shares the Redis instance with
// the token blacklist.
func NewServer(conn asynq.RedisConnOpt, concurrency int, logger *slog.Logger) *asynq.Server {
	return asynq.NewServer(conn, asynq.Config{
		Concurrency: concurrency,
		Logger:      slogAdapter{logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", "type", task.Type(), "error", err)
		}),
	})
}

// slogAdapter satisfies asynq.Logger.
type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Debug(args ...interface{}) { a.l.Debug(fmt.Sprint(args...)) }
func (a slogAdapter) Info(args ...interface{})  { a.l.Info(fmt.Sprint(args...)) }
func (a slogAdapter) Warn(args ...interface{})  { a.l.Warn(fmt.Sprint(args...)) }
func (a slogAdapter) Error(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
func (a slogAdapter) Fatal(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
