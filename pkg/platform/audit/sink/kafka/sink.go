// Package kafka ships audit events to a Kafka topic so downstream compliance
// tooling can consume them independently of the engine's own store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "pathway/pkg/platform/audit"
)

// Sink implements audit.Store by producing to Kafka. Produce is synchronous
// so EmitSync keeps its fail-closed guarantee end to end.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects to the given brokers (comma separated) and returns a sink for
// the topic.
func New(brokers, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// wireEvent is the JSON shape published to the topic.
type wireEvent struct {
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
	StudentRef  string    `json:"studentRef,omitempty"`
	ObjectiveID string    `json:"objectiveId,omitempty"`
	Action      string    `json:"action"`
	Tier        string    `json:"tier,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	RequestID   string    `json:"requestId,omitempty"`
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(wireEvent{
		Category:    string(event.Category),
		Timestamp:   event.Timestamp,
		StudentRef:  event.StudentRef.String(),
		ObjectiveID: event.ObjectiveID.String(),
		Action:      string(event.Action),
		Tier:        event.Tier,
		Outcome:     event.Outcome,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		// Key by student so one student's trail stays ordered per partition.
		Key:   []byte(event.StudentRef),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the Kafka client.
func (s *Sink) Close() {
	s.client.Close()
}
