package ioc

import (
	"log"

	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"go.uber.org/zap"
)

func InitLogger() loggerv2.Logger {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Panicf("init zap logger failed, err: %v", err)
	}
	return loggerv2.NewZapContextLogger(zapLogger)
}
