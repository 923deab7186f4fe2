package ioc

import (
	"github.com/to404hanga/online_judge_live/event"
	"github.com/to404hanga/online_judge_live/service"
	"github.com/to404hanga/online_judge_live/service/exporter/factory"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"
)

func InitLedgerService(db *gorm.DB, messageSvc service.MessageService, producer event.Producer, l loggerv2.Logger) service.LedgerService {
	repo := service.NewGormParticipantRepository(db)
	return service.NewLedgerService(repo, db, messageSvc, producer, l)
}

func InitChallengeRepository(db *gorm.DB) service.ChallengeRepository {
	return service.NewGormChallengeRepository(db)
}

func InitExporterFactory(ledgerSvc service.LedgerService, l loggerv2.Logger) *factory.ExporterFactory {
	return factory.NewExporterFactory(ledgerSvc, l)
}
