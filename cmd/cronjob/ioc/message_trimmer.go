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

func InitMessageTrimmer(messageSvc service.MessageService, l loggerv2.Logger) *job.JobConfig {
	var cfg config.MessageTrimmerConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal message trimmer config failed, err: %v", err)
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 7
	}

	m := cleaner.NewMessageTrimmer(messageSvc, l, time.Duration(cfg.RetentionDays)*24*time.Hour)
	jbCfg := &job.JobConfig{
		Name:        "历史消息清理",
		CronExpr:    cfg.CronExpr,
		JobFunc:     m.RunCleanup,
		Description: "清理超过保留期的持久化消息",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
	return jbCfg
}
