package kafkautils

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	topicInitMaxElapsed = 2 * time.Minute
	flushTimeoutMs      = 10_000
)

type KafkaConfig struct {
	BootstrapServers string
	Topics           []TopicConfig
}

type TopicConfig struct {
	Topic             string
	NumPartitions     int
	ReplicationFactor int
	Config            map[string]string
}

// DeleteRetention is the topic config for a delete-policy topic that keeps messages for d.
func DeleteRetention(d time.Duration) map[string]string {
	return map[string]string{
		"cleanup.policy": "delete",
		"retention.ms":   strconv.FormatInt(d.Milliseconds(), 10),
	}
}

func topicSpecs(topics []TopicConfig) []kafka.TopicSpecification {
	specs := make([]kafka.TopicSpecification, 0, len(topics))
	for _, t := range topics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             t.Topic,
			NumPartitions:     max(t.NumPartitions, 1),
			ReplicationFactor: max(t.ReplicationFactor, 1),
			Config:            t.Config,
		})
	}
	return specs
}

// InitKafkaTopics creates the configured topics, treating existing ones as success.
// Failed attempts are retried with exponential backoff for up to two minutes or until ctx ends.
func InitKafkaTopics(ctx context.Context, logger *zap.Logger, cnf KafkaConfig) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": cnf.BootstrapServers})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	specs := topicSpecs(cnf.Topics)
	attempt := 0
	operation := func() error {
		attempt++
		results, err := admin.CreateTopics(ctx, specs, kafka.SetAdminOperationTimeout(30*time.Second))
		if err != nil {
			logger.Warn("kafka_topic_init_retry", zap.Int("attempt", attempt), zap.Error(err))
			return fmt.Errorf("failed to create topics: %w", err)
		}
		for _, r := range results {
			switch r.Error.Code() {
			case kafka.ErrNoError:
				logger.Info("kafka_topic_created", zap.String("topic", r.Topic))
			case kafka.ErrTopicAlreadyExists:
				logger.Debug("kafka_topic_exists", zap.String("topic", r.Topic))
			default:
				return fmt.Errorf("kafka topic %s creation failed: %v", r.Topic, r.Error)
			}
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = topicInitMaxElapsed
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// NewProducer creates an idempotent producer whose delivery failures are logged.
// The closer flushes outstanding messages before closing.
func NewProducer(logger *zap.Logger, brokers string) (*kafka.Producer, func(), error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"acks":               "all",
		"enable.idempotence": "true",
		"retries":            "3",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info("kafka_producer_created", zap.String("brokers", brokers))
	go logDeliveryReports(logger, p)

	closer := func() {
		if left := p.Flush(flushTimeoutMs); left > 0 {
			logger.Warn("kafka_flush_incomplete", zap.Int("pending", left))
		}
		p.Close()
	}
	return p, closer, nil
}

func logDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				topic := ""
				if ev.TopicPartition.Topic != nil {
					topic = *ev.TopicPartition.Topic
				}
				logger.Error("kafka_delivery_failed", zap.String("topic", topic), zap.Error(ev.TopicPartition.Error))
			}
		case kafka.Error:
			logger.Warn("kafka_producer_error", zap.Error(ev))
		}
	}
}
