package services

import (
	"context"
	"encoding/json"
	"hash/fnv"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/dtos"
	kafkautils "github.com/nimeshabuddhika/fraud-stream-simulator/pkg/kafka"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/views"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-scorer/configs"
	"go.uber.org/zap"
)

type KafkaScorePublisher struct {
	logger      *zap.Logger
	producer    *kafka.Producer
	scoresTopic string
	dlqTopic    string
	partitions  uint32
}

// NewKafkaScorePublisher creates the score and DLQ topics and a producer for them.
func NewKafkaScorePublisher(ctx context.Context, logger *zap.Logger, cnf *configs.Config) (*KafkaScorePublisher, func(), error) {
	err := kafkautils.InitKafkaTopics(ctx, logger, kafkautils.KafkaConfig{
		BootstrapServers: cnf.KafkaBrokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.KafkaScoresTopic,
				NumPartitions:     int(cnf.KafkaPartition),
				ReplicationFactor: 1,
				Config:            kafkautils.DeleteRetention(cnf.KafkaRetention),
			},
			{
				Topic:             cnf.KafkaDLQTopic,
				NumPartitions:     1,
				ReplicationFactor: 1,
				Config:            kafkautils.DeleteRetention(cnf.KafkaRetention),
			},
		},
	})
	if err != nil {
		return nil, nil, err
	}

	producer, closer, err := kafkautils.NewProducer(logger, cnf.KafkaBrokers)
	if err != nil {
		return nil, nil, err
	}
	return &KafkaScorePublisher{
		logger:      logger,
		producer:    producer,
		scoresTopic: cnf.KafkaScoresTopic,
		dlqTopic:    cnf.KafkaDLQTopic,
		partitions:  cnf.KafkaPartition,
	}, closer, nil
}

// partitionFor keeps every message of one file on the same partition.
func partitionFor(key string, partitions uint32) int32 {
	if partitions == 0 {
		return kafka.PartitionAny
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int32(h.Sum32() % partitions)
}

func (k *KafkaScorePublisher) PublishResult(_ context.Context, result dtos.ScoreResult) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.scoresTopic,
			Partition: partitionFor(result.FileID, k.partitions),
		},
		Key:   []byte(result.FileID),
		Value: b,
	}, nil)
}

func (k *KafkaScorePublisher) PublishFailure(_ context.Context, failure views.ScoreFailure) error {
	b, err := json.Marshal(failure)
	if err != nil {
		return err
	}
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.dlqTopic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(failure.FileName),
		Value: b,
	}, nil)
	if err != nil {
		return err
	}
	k.logger.Info("sent_to_score_dlq", zap.String("file", failure.FileName), zap.String("code", failure.ErrorCode))
	return nil
}
