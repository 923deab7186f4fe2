package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_live/config"
	"github.com/to404hanga/online_judge_live/web/wsticket"
)

func InitTicketer() *wsticket.Ticketer {
	var cfg config.WSTicketConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal wsTicket config failed, err: %v", err)
	}
	if cfg.SigningKey == "" {
		log.Panicf("wsTicket signing key cannot be empty")
	}
	if cfg.ExpirationSeconds <= 0 {
		cfg.ExpirationSeconds = 30
	}

	return wsticket.NewTicketer([]byte(cfg.SigningKey), time.Duration(cfg.ExpirationSeconds)*time.Second)
}
