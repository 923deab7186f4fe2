package ioc

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_live/config"
	"github.com/to404hanga/online_judge_live/pkg/gintool"
	"github.com/to404hanga/online_judge_live/web"
	"github.com/to404hanga/online_judge_live/web/middleware"
)

func InitGinServer(presenceHandler *web.PresenceHandler, chatHandler *web.ChatHandler, submissionHandler *web.SubmissionHandler, healthHandler *web.HealthHandler) *web.GinServer {
	var cfg config.GinConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal gin config failed, err: %v", err)
	}

	// 优先使用环境变量中设置的服务端口
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Addr = ":" + port
	}

	corsBuilder := middleware.NewCORSMiddlewareBuilder(
		cfg.AllowOrigins,
		cfg.AllowMethods,
		cfg.AllowHeaders,
		cfg.ExposeHeaders,
		cfg.AllowCredentials,
		time.Duration(cfg.MaxAge)*time.Second)

	engine := gin.Default()
	engine.Use(
		corsBuilder.Build(),
		gintool.ContextMiddleware(),
	)
	if cfg.EnablePprof {
		pprof.Register(engine)
	}

	presenceHandler.Register(engine)
	chatHandler.Register(engine)
	submissionHandler.Register(engine)
	healthHandler.Register(engine)

	return &web.GinServer{
		Engine: engine,
		Addr:   cfg.Addr,
	}
}
