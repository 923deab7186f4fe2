//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/to404hanga/online_judge_live/cmd/live/ioc"
	commonioc "github.com/to404hanga/online_judge_live/ioc"
	"github.com/to404hanga/online_judge_live/web"
)

func BuildDependency() *web.GinServer {
	wire.Build(
		commonioc.InitDB,
		commonioc.InitLogger,
		commonioc.InitRedis,
		commonioc.InitKafka,
		commonioc.InitTicketer,
		commonioc.InitPresenceService,
		commonioc.InitMessageService,

		ioc.InitJudgeService,
		ioc.InitLedgerService,
		ioc.InitChallengeRepository,
		ioc.InitExporterFactory,

		web.NewPresenceHandler,
		web.NewChatHandler,
		web.NewSubmissionHandler,
		web.NewHealthHandler,

		ioc.InitGinServer,
	)
	return &web.GinServer{}
}
