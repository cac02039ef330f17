package ingest

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/dispatch-agent/internal/models"
)

// KafkaJournal publishes every propagated location sample to a fleet
// telemetry topic, keyed by agent id.
type KafkaJournal struct {
	writer *kafka.Writer
}

func NewKafkaJournal(brokers []string, topic string) *KafkaJournal {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaJournal{writer: w}
}

type sampleRecord struct {
	UserID    int64        `json:"id_usuario"`
	Location  models.Coord `json:"location"`
	Timestamp time.Time    `json:"ts"`
}

func (k *KafkaJournal) PublishSample(ctx context.Context, userID int64, loc models.Coord) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := json.Marshal(sampleRecord{UserID: userID, Location: loc, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	key := []byte(strconv.FormatInt(userID, 10))
	return k.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: b})
}

func (k *KafkaJournal) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
