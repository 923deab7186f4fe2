//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/to404hanga/online_judge_live/cmd/cronjob/ioc"
	commonioc "github.com/to404hanga/online_judge_live/ioc"
	"github.com/to404hanga/online_judge_live/job"
)

func InitScheduler() *job.CronScheduler {
	wire.Build(
		commonioc.InitDB,
		commonioc.InitLogger,
		commonioc.InitRedis,
		commonioc.InitPresenceService,
		commonioc.InitMessageService,
		ioc.InitScheduler,
	)
	return &job.CronScheduler{}
}
