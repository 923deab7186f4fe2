package event

import (
	"context"

	"github.com/IBM/sarama"
)

type Producer interface {
	Produce(ctx context.Context, msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
}

type SaramaSyncProducer struct {
	producer sarama.SyncProducer
}

var _ Producer = (*SaramaSyncProducer)(nil)

func NewSaramaSyncProducer(producer sarama.SyncProducer) Producer {
	return &SaramaSyncProducer{
		producer: producer,
	}
}

func (p *SaramaSyncProducer) Produce(_ context.Context, msg *sarama.ProducerMessage) (int32, int64, error) {
	return p.producer.SendMessage(msg)
}
