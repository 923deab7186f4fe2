package ioc

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_live/config"
	"github.com/to404hanga/online_judge_live/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// InitPresenceService 启动时探活决定后端: Redis 可用走共享存储,
// 不可用降级为进程内存储(单实例部署也走这条路)
func InitPresenceService(rdb redis.Cmdable, l loggerv2.Logger) service.PresenceService {
	var cfg config.PresenceConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal presence config failed, err: %v", err)
	}
	if cfg.HealthCheckTimeout <= 0 {
		cfg.HealthCheckTimeout = 1000
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HealthCheckTimeout)*time.Millisecond)
	defer cancel()

	if rdb == nil || rdb.Ping(ctx).Err() != nil {
		log.Println("presence: redis unavailable, falling back to in-process store")
		return service.NewLocalPresenceStore(l, ttl)
	}
	return service.NewRedisPresenceStore(rdb, l, ttl)
}
