package ioc

import (
	"log"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_live/config"
	"github.com/to404hanga/online_judge_live/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"
)

func InitMessageService(db *gorm.DB, l loggerv2.Logger) service.MessageService {
	var cfg config.ChannelConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal channel config failed, err: %v", err)
	}

	repo := service.NewGormMessageRepository(db)
	return service.NewMessageService(repo, l, cfg.RingSize, cfg.SubscriberBuffer)
}
