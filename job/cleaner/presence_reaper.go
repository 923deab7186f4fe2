package cleaner

import (
	"context"

	"github.com/to404hanga/online_judge_live/service"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// PresenceReaper 兜底清理过期在线条目, Touch 时的顺带清理覆盖不到沉寂的小组
type PresenceReaper struct {
	presenceSvc service.PresenceService
	log         loggerv2.Logger
}

func NewPresenceReaper(presenceSvc service.PresenceService, log loggerv2.Logger) *PresenceReaper {
	return &PresenceReaper{
		presenceSvc: presenceSvc,
		log:         log,
	}
}

// RunCleanup 运行在线状态清理任务
func (c *PresenceReaper) RunCleanup(ctx context.Context) error {
	c.log.InfoContext(ctx, "Starting presence reap job")

	pruned, err := c.presenceSvc.PruneExpired(ctx)
	if err != nil {
		return err
	}

	c.log.InfoContext(ctx, "Presence reap completed", logger.Int64("pruned", pruned))
	return nil
}
