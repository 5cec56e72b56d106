package services

import (
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
)

func TestPartitionFor(t *testing.T) {
	p := partitionFor("file-1", 4)
	assert.GreaterOrEqual(t, p, int32(0))
	assert.Less(t, p, int32(4))
	assert.Equal(t, p, partitionFor("file-1", 4))
	assert.Equal(t, kafka.PartitionAny, partitionFor("file-1", 0))
}
