package ioc

import (
	"log"

	"github.com/IBM/sarama"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_live/config"
	"github.com/to404hanga/online_judge_live/event"
)

func InitKafka() event.Producer {
	var cfg config.KafkaConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal kafka config failed, err: %v", err)
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		log.Panicf("create kafka sync producer failed, err: %v", err)
	}
	return event.NewSaramaSyncProducer(producer)
}
