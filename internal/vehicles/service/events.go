package service

import (
	"context"
	"strconv"
	"time"

	"rideshare/pkg/config"
	"rideshare/pkg/kafka"
)

// Event types published to the vehicle stream.
const (
	EventUnlocked        = "vehicle.unlocked"
	EventReturned        = "vehicle.returned"
	EventLocationChanged = "vehicle.location_changed"
)

// VehicleEvent is the payload published after a successful state change.
type VehicleEvent struct {
	Type     string    `json:"type"`
	CarID    int       `json:"car_id"`
	Username string    `json:"username,omitempty"`
	Location string    `json:"location,omitempty"`
	At       time.Time `json:"at"`
}

// EventPublisher pushes vehicle events to the stream. A nil publisher
// disables eventing.
type EventPublisher interface {
	PublishVehicleEvent(ctx context.Context, event VehicleEvent) error
}

// KafkaEventPublisher publishes vehicle events through the shared producer.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	source   string
	cfg      *config.Config
}

func NewKafkaEventPublisher(producer *kafka.Producer, source string, cfg *config.Config) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		source:   source,
		cfg:      cfg,
	}
}

func (p *KafkaEventPublisher) PublishVehicleEvent(ctx context.Context, event VehicleEvent) error {
	msg, err := kafka.NewEventMessage(event.Type, strconv.Itoa(event.CarID), p.source, event)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}
