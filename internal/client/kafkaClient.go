package client

import (
	"fmt"
	"time"

	"square-payment-gateway/internal/config"

	"github.com/IBM/sarama"
)

// InitKafkaProducer returns nil when no brokers are configured. Network and
// produce timeouts are bounded by cfg.Timeout so a dead broker cannot hold
// messages for sarama's 30s defaults.
func InitKafkaProducer(cfg config.Kafka) (sarama.AsyncProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	saramaCfg := newProducerConfig(cfg.Timeout)

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

func newProducerConfig(timeout time.Duration) *sarama.Config {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Net.DialTimeout = timeout
	saramaCfg.Net.ReadTimeout = timeout
	saramaCfg.Net.WriteTimeout = timeout
	saramaCfg.Producer.Timeout = timeout
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 1
	saramaCfg.Producer.Return.Successes = false
	saramaCfg.Producer.Return.Errors = true
	return saramaCfg
}
