package stream

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// TopicForTable returns the Kafka topic carrying change events for a table.
func TopicForTable(prefix, table string) string {
	return fmt.Sprintf("%s.%s", prefix, table)
}

// KafkaSource reads change events from one per-table Kafka topic.
type KafkaSource struct {
	reader *kafka.Reader
}

// NewKafkaSource opens a consumer-group reader for the table's topic.
func NewKafkaSource(brokers []string, topicPrefix, table, groupID string) *KafkaSource {
	return &KafkaSource{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    TopicForTable(topicPrefix, table),
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// ReadMessage blocks for the next change event payload on the topic.
func (k *KafkaSource) ReadMessage(ctx context.Context) ([]byte, error) {
	msg, err := k.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Value, nil
}

// Close shuts the underlying reader down.
func (k *KafkaSource) Close() error {
	return k.reader.Close()
}
