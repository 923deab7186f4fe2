package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_live/cmd/cronjob/config"
	"github.com/to404hanga/online_judge_live/job"
	"github.com/to404hanga/online_judge_live/job/cleaner"
	"github.com/to404hanga/online_judge_live/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitPresenceReaper(presenceSvc service.PresenceService, l loggerv2.Logger) *job.JobConfig {
	var cfg config.PresenceReaperConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal presence reaper config failed, err: %v", err)
	}

	m := cleaner.NewPresenceReaper(presenceSvc, l)
	jbCfg := &job.JobConfig{
		Name:        "在线状态清理",
		CronExpr:    cfg.CronExpr,
		JobFunc:     m.RunCleanup,
		Description: "清理过期的在线状态条目",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
	return jbCfg
}
