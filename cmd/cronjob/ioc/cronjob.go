package ioc

import (
	"github.com/to404hanga/online_judge_live/job"
	"github.com/to404hanga/online_judge_live/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitScheduler(l loggerv2.Logger, presenceSvc service.PresenceService, messageSvc service.MessageService) *job.CronScheduler {
	scheduler := job.NewCronScheduler(l)

	scheduler.AddJob(InitPresenceReaper(presenceSvc, l))
	scheduler.AddJob(InitMessageTrimmer(messageSvc, l))

	return scheduler
}
