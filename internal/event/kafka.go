package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KafkaPublisher hands events to an async producer. Publish only waits for
// the producer's input buffer; delivery failures are logged in the
// background.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *zap.Logger
	done     chan struct{}
}

func NewKafkaPublisher(producer sarama.AsyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.Named("events"),
		done:     make(chan struct{}),
	}
	go p.drainErrors()
	return p
}

func (p *KafkaPublisher) drainErrors() {
	defer close(p.done)
	for perr := range p.producer.Errors() {
		eventType := ""
		for _, h := range perr.Msg.Headers {
			if string(h.Key) == "type" {
				eventType = string(h.Value)
			}
		}
		p.logger.Warn("deliver event", zap.String("type", eventType), zap.Error(perr.Err))
	}
}

// Publish keys messages by store so one store's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, ev PaymentEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.Itoa(ev.StoreID)),
		Value: sarama.ByteEncoder(b),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(ev.Type)},
		},
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s event: %w", ev.Type, ctx.Err())
	}
}

// Close flushes buffered events and waits for the error drain to finish.
func (p *KafkaPublisher) Close() error {
	err := p.producer.Close()
	<-p.done
	return err
}
