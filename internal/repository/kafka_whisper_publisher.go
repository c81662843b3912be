package repository

import (
	"context"
	"time"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/internal/domain/repository"
	pkgkafka "MarketWhisperer/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// whisperEvent is the record written to the whisper topic.
type whisperEvent struct {
	JobID       string          `json:"job_id"`
	Symbol      string          `json:"symbol"`
	Type        models.Category `json:"type"`
	Severity    models.Severity `json:"severity"`
	Message     string          `json:"message"`
	Reasoning   string          `json:"reasoning"`
	Action      models.Action   `json:"action"`
	PublishedAt time.Time       `json:"published_at"`
}

// KafkaWhisperPublisher implements WhisperPublisher for Kafka.
// All whispers of one job share the job id as key, so they land on one partition in order.
type KafkaWhisperPublisher struct {
	producer batchProducer
	topic    string
	now      func() time.Time
}

func NewKafkaWhisperPublisher(producer *pkgkafka.Producer, topic string) repository.WhisperPublisher {
	return newKafkaWhisperPublisher(producer, topic)
}

func newKafkaWhisperPublisher(producer batchProducer, topic string) *KafkaWhisperPublisher {
	return &KafkaWhisperPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaWhisperPublisher) PublishWhispers(ctx context.Context, jobID string, whispers []models.Whisper) error {
	if len(whispers) == 0 {
		return nil
	}
	ts := p.now().UTC()
	msgs := make([]pkgkafka.Message, len(whispers))
	for i, w := range whispers {
		msgs[i] = pkgkafka.Message{
			Key: []byte(jobID),
			Value: whisperEvent{
				JobID:       jobID,
				Symbol:      w.Symbol,
				Type:        w.Category,
				Severity:    w.Severity,
				Message:     w.Message,
				Reasoning:   w.Reasoning,
				Action:      w.Action,
				PublishedAt: ts,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaWhisperPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
