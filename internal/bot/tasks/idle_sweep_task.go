package tasks

import (
	"context"
	"time"
)

// newIdleSweepTask creates the task that evicts conversations and rate-limit
// windows that have been idle past the configured maximum age.
func newIdleSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "idle_sweep")

	return func(ctx context.Context) error {
		startTime := time.Now()
		maxAge := deps.Config.Bot.ConversationMaxAge

		removed := deps.Conversations.SweepIdle(maxAge)
		identities := deps.Limiter.SweepIdle(maxAge)

		log.InfoContext(ctx, "Idle sweep completed",
			"conversations_removed", removed,
			"rate_windows_removed", identities,
			"max_age", maxAge,
			"duration", time.Since(startTime))
		return nil
	}
}
