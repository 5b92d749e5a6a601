// Package kafkasink republishes data/error/done events onto a Kafka topic
// as JSON messages, demonstrating that the event bus is a multi-subscriber
// fan-out rather than a single in-process channel — a second, independent
// subscriber alongside internal/badgersnapshot.
//
// Grounded on pingcap-tiflow's pkg/sink/kafka: building a sarama.Config,
// constructing a client/producer from it, and wrapping construction
// errors with operation context.
package kafkasink

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/flowdag/flowdag/internal/eventbus"
	"github.com/flowdag/flowdag/internal/snapshot"
)

// Sink produces JSON-encoded run events to a single Kafka topic.
type Sink struct {
	producer sarama.SyncProducer
	topic    string
}

// Open constructs a synchronous Kafka producer against brokers and returns
// a Sink publishing to topic.
func Open(brokers []string, topic string) (*Sink, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafkasink: new producer: %w", err)
	}
	return &Sink{producer: producer, topic: topic}, nil
}

// Close releases the underlying producer.
func (s *Sink) Close() error {
	return s.producer.Close()
}

type envelope struct {
	Topic string              `json:"topic"`
	RunID string              `json:"runId"`
	Snap  *snapshot.Snapshot  `json:"snapshot"`
	Err   string              `json:"error,omitempty"`
}

// Subscribe wires all three event bus topics to this sink, tagging each
// message with runID and the originating topic name.
func (s *Sink) Subscribe(bus *eventbus.Bus, runID string) {
	bus.OnData(func(snap *snapshot.Snapshot) {
		s.publish(envelope{Topic: "data", RunID: runID, Snap: snap.Clone()})
	})
	bus.OnError(func(snap *snapshot.Snapshot, err error) {
		s.publish(envelope{Topic: "error", RunID: runID, Snap: snap.Clone(), Err: err.Error()})
	})
	bus.OnDone(func(snap *snapshot.Snapshot) {
		s.publish(envelope{Topic: "done", RunID: runID, Snap: snap.Clone()})
	})
}

func (s *Sink) publish(env envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(env.RunID),
		Value: sarama.ByteEncoder(payload),
	}
	_, _, _ = s.producer.SendMessage(msg)
}
