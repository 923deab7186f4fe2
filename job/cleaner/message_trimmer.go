package cleaner

import (
	"context"
	"time"

	"github.com/to404hanga/online_judge_live/service"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// MessageTrimmer 清理超过保留期的持久化消息
type MessageTrimmer struct {
	messageSvc service.MessageService
	log        loggerv2.Logger
	retention  time.Duration
}

func NewMessageTrimmer(messageSvc service.MessageService, log loggerv2.Logger, retention time.Duration) *MessageTrimmer {
	return &MessageTrimmer{
		messageSvc: messageSvc,
		log:        log,
		retention:  retention,
	}
}

// RunCleanup 运行消息清理任务
func (c *MessageTrimmer) RunCleanup(ctx context.Context) error {
	c.log.InfoContext(ctx, "Starting message trim job")

	deleted, err := c.messageSvc.TrimDurable(ctx, time.Now().Add(-c.retention))
	if err != nil {
		return err
	}

	c.log.InfoContext(ctx, "Message trim completed", logger.Int64("deleted", deleted))
	return nil
}
