package communicator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/bilal/speedtest-agent/internal/config"
	"github.com/bilal/speedtest-agent/internal/measure"
)

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer mirrors finished results to a Kafka topic.
type KafkaProducer struct {
	log    zerolog.Logger
	writer messageWriter
}

// NewKafkaProducer returns nil, nil when no brokers are configured.
func NewKafkaProducer(log zerolog.Logger, cfg config.KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic not configured")
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: int(kafka.RequireOne),
	})

	log.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("kafka producer initialized")

	return &KafkaProducer{log: log, writer: w}, nil
}

func (p *KafkaProducer) Publish(ctx context.Context, res *measure.Result) error {
	data, err := json.Marshal(NewResultPayload(res, time.Now()))
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(res.ID),
		Value: data,
	})
}

func (p *KafkaProducer) Close() error {
	p.log.Info().Msg("closing kafka producer")
	return p.writer.Close()
}
