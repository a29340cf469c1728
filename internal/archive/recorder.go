package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/charmbracelet/log"

	"streamliner/internal/item"
	"streamliner/internal/logging"
)

// Runner resolves a command and URL into items.
type Runner interface {
	Run(ctx context.Context, command, url string) (item.Envelope, error)
}

// Recorder wraps a Runner and appends every successful result to the
// archive. A failed write is logged and never fails the call.
type Recorder struct {
	Runner Runner
	DB     *sql.DB
	Logger *log.Logger
	// Now stamps snapshots; nil means time.Now.
	Now func() time.Time
}

func (r *Recorder) Run(ctx context.Context, command, url string) (item.Envelope, error) {
	env, err := r.Runner.Run(ctx, command, url)
	if err != nil || r.DB == nil {
		return env, err
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	id, serr := SaveSnapshot(ctx, r.DB, command, url, env, now)
	logger := logging.OrDiscard(r.Logger)
	if serr != nil {
		logger.Warn("archive write failed", "command", command, "url", url, "err", serr)
		return env, nil
	}
	logger.Debug("archived snapshot", "id", id, "items", len(env.Items))
	return env, nil
}
