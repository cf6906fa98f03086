// Package ingest publishes domain traffic to Kafka: driver GPS pings for the
// geo-index consumer and ride events for downstream analytics.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

const publishTimeout = 2 * time.Second

type Producer struct {
	locations *kafka.Writer
	events    *kafka.Writer
}

// NewProducer builds writers for the location and event topics. Either topic
// may be empty, in which case publishes to it are silently skipped.
func NewProducer(brokers []string, locationTopic, eventTopic string) *Producer {
	p := &Producer{}
	if locationTopic != "" {
		p.locations = kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: locationTopic, Balancer: &kafka.LeastBytes{}})
	}
	if eventTopic != "" {
		p.events = kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: eventTopic, Balancer: &kafka.LeastBytes{}})
	}
	return p
}

// PublishLocation keys by driver id so a driver's pings stay ordered within a
// partition.
func (p *Producer) PublishLocation(ctx context.Context, ping models.LocationPing) error {
	if p.locations == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	b, err := json.Marshal(ping)
	if err != nil {
		return err
	}
	return p.locations.WriteMessages(ctx, kafka.Message{Key: []byte(ping.DriverID), Value: b})
}

// PublishEvent keys by ride id so each ride's event stream stays ordered.
func (p *Producer) PublishEvent(ctx context.Context, ev models.RideEvent) error {
	if p.events == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.events.WriteMessages(ctx, kafka.Message{Key: []byte(ev.RideID), Value: b})
}

func (p *Producer) Close() error {
	var first error
	for _, w := range []*kafka.Writer{p.locations, p.events} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
