// Package events publishes plan lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/signalsfoundry/coverage-planner/internal/config"
	"github.com/signalsfoundry/coverage-planner/model"
)

// EventPlanGenerated is the type of events emitted after a plan is stored.
const EventPlanGenerated = "plan.generated"

// PlanGenerated describes a freshly generated mission.
type PlanGenerated struct {
	EventID          string    `json:"event_id"`
	EventType        string    `json:"event_type"`
	MissionID        string    `json:"mission_id"`
	MissionName      string    `json:"mission_name"`
	WaypointCount    int       `json:"waypoint_count"`
	PathLengthKm     float64   `json:"path_length_km"`
	EstimatedTimeMin float64   `json:"estimated_time_min"`
	AreaKm2          float64   `json:"area_km2"`
	Warnings         []string  `json:"warnings,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewPlanGenerated builds the event for m.
func NewPlanGenerated(m *model.Mission, at time.Time) PlanGenerated {
	return PlanGenerated{
		EventID:          uuid.NewString(),
		EventType:        EventPlanGenerated,
		MissionID:        m.ID,
		MissionName:      m.Name,
		WaypointCount:    m.Metrics.WaypointCount,
		PathLengthKm:     m.Metrics.PathLengthKm,
		EstimatedTimeMin: m.Metrics.EstimatedTimeMin,
		AreaKm2:          m.Metrics.AreaKm2,
		Warnings:         m.Warnings,
		OccurredAt:       at.UTC(),
	}
}

// Publisher emits plan events.
type Publisher interface {
	PublishPlanGenerated(ctx context.Context, m *model.Mission) error
	Close() error
}

// Noop drops every event. It is used when events are disabled.
type Noop struct{}

// PublishPlanGenerated implements Publisher.
func (Noop) PublishPlanGenerated(context.Context, *model.Mission) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events keyed by mission name so all events of one
// mission land on the same partition.
type Kafka struct {
	w   messageWriter
	now func() time.Time
}

var _ Publisher = (*Kafka)(nil)

// New returns a Publisher for cfg: Noop when disabled, otherwise a Kafka
// writer for the configured topic.
func New(cfg config.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("events: brokers and topic are required")
	}
	return newKafka(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}), nil
}

func newKafka(w messageWriter) *Kafka {
	return &Kafka{w: w, now: time.Now}
}

// PublishPlanGenerated implements Publisher.
func (k *Kafka) PublishPlanGenerated(ctx context.Context, m *model.Mission) error {
	if m == nil || m.Name == "" {
		return errors.New("events: mission name is required")
	}
	msg, err := json.Marshal(NewPlanGenerated(m, k.now()))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.Name),
		Value: msg,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventPlanGenerated)},
		},
	})
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error { return k.w.Close() }
