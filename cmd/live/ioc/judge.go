package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_live/config"
	"github.com/to404hanga/online_judge_live/pkg/judge0"
	"github.com/to404hanga/online_judge_live/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitJudgeService(l loggerv2.Logger) service.JudgeService {
	var cfg config.JudgeConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal judge config failed, err: %v", err)
	}
	if cfg.BaseURL == "" {
		log.Panicf("judge baseURL cannot be empty")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5000
	}

	client := judge0.NewJudge0Service(l, cfg.BaseURL, cfg.AuthToken, time.Duration(cfg.RequestTimeout)*time.Millisecond)
	return service.NewJudgeService(client, l,
		time.Duration(cfg.PollIntervalMs)*time.Millisecond,
		time.Duration(cfg.MaxWaitMs)*time.Millisecond)
}
