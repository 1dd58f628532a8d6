// Package telemetry ingests bike status and alarm events published by the
// fleet over MQTT.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"github.com/voltride/voltride-backend/ride"
)

const (
	statusTopic = "bikes/+/status"
	alarmTopic  = "bikes/+/alarm"

	handlerTimeout = 10 * time.Second
)

// StatusUpdate is the payload a bike publishes on bikes/{id}/status.
// BatteryLevel is a pointer so a position-only report leaves the stored
// battery level alone.
type StatusUpdate struct {
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	BatteryLevel *float64 `json:"battery_level"`
}

// AlarmEvent is the payload a bike publishes on bikes/{id}/alarm.
type AlarmEvent struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// BikeStore is the subset of the bike repository telemetry needs.
type BikeStore interface {
	UpdateTelemetry(ctx context.Context, id string, lat, lng, battery float64) error
}

// RideStore looks up the ride a bike is currently on, if any.
type RideStore interface {
	FindActiveByBike(ctx context.Context, bikeID string) (*ride.Ride, error)
}

// IncidentStore records alarm incidents.
type IncidentStore interface {
	Record(ctx context.Context, inc Incident) error
}

// Subscriber consumes fleet telemetry from an MQTT broker.
type Subscriber struct {
	client    mqtt.Client
	bikes     BikeStore
	rides     RideStore
	incidents IncidentStore
	logger    *slog.Logger
}

func NewSubscriber(brokerURL, clientID string, bikes BikeStore, rides RideStore, incidents IncidentStore, logger *slog.Logger) *Subscriber {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	return &Subscriber{
		client:    mqtt.NewClient(opts),
		bikes:     bikes,
		rides:     rides,
		incidents: incidents,
		logger:    logger,
	}
}

// Start connects to the broker and subscribes to the fleet topics. It does
// not block; handlers run on the paho client's goroutines.
func (s *Subscriber) Start() error {
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	if token := s.client.Subscribe(statusTopic, 0, s.onStatus); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", statusTopic, token.Error())
	}
	if token := s.client.Subscribe(alarmTopic, 0, s.onAlarm); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", alarmTopic, token.Error())
	}

	s.logger.Info("telemetry subscriber started", slog.String("broker", brokerFrom(s.client)))
	return nil
}

func (s *Subscriber) Stop() {
	s.client.Disconnect(250)
}

func brokerFrom(c mqtt.Client) string {
	servers := c.OptionsReader().Servers()
	if len(servers) == 0 {
		return ""
	}
	return servers[0].String()
}

func (s *Subscriber) onStatus(_ mqtt.Client, msg mqtt.Message) {
	bikeID, err := bikeIDFromTopic(msg.Topic())
	if err != nil {
		s.logger.Error("bad telemetry topic", slog.String("topic", msg.Topic()))
		return
	}

	var update StatusUpdate
	if err := json.Unmarshal(msg.Payload(), &update); err != nil {
		s.logger.Error("bad status payload", slog.String("bike_id", bikeID), slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := s.ProcessStatus(ctx, bikeID, update); err != nil {
		s.logger.Error("status update failed", slog.String("bike_id", bikeID), slog.String("error", err.Error()))
	}
}

func (s *Subscriber) onAlarm(_ mqtt.Client, msg mqtt.Message) {
	bikeID, err := bikeIDFromTopic(msg.Topic())
	if err != nil {
		s.logger.Error("bad telemetry topic", slog.String("topic", msg.Topic()))
		return
	}

	var event AlarmEvent
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		s.logger.Error("bad alarm payload", slog.String("bike_id", bikeID), slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := s.ProcessAlarm(ctx, bikeID, event); err != nil {
		s.logger.Error("alarm handling failed", slog.String("bike_id", bikeID), slog.String("error", err.Error()))
	}
}

// ProcessStatus applies a status update to the bike's stored location and
// battery level. A payload without a battery reading passes the negative
// sentinel so only the position changes.
func (s *Subscriber) ProcessStatus(ctx context.Context, bikeID string, update StatusUpdate) error {
	battery := -1.0
	if update.BatteryLevel != nil {
		battery = *update.BatteryLevel
	}
	return s.bikes.UpdateTelemetry(ctx, bikeID, update.Location.Latitude, update.Location.Longitude, battery)
}

// ProcessAlarm records an incident against the bike's active ride. Alarms
// from idle bikes are logged and dropped.
func (s *Subscriber) ProcessAlarm(ctx context.Context, bikeID string, event AlarmEvent) error {
	active, err := s.rides.FindActiveByBike(ctx, bikeID)
	if err != nil {
		return err
	}
	if active == nil {
		s.logger.Warn("alarm from idle bike", slog.String("bike_id", bikeID), slog.String("type", event.Type))
		return nil
	}

	inc := NewIncident(bikeID, active, event)
	if err := s.incidents.Record(ctx, inc); err != nil {
		return err
	}

	s.logger.Warn("alarm incident recorded",
		slog.String("bike_id", bikeID),
		slog.String("ride_id", active.ID.Hex()),
		slog.String("type", inc.Type),
	)
	return nil
}

// bikeIDFromTopic extracts the bike ID from a bikes/{id}/... topic.
func bikeIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] != "bikes" || parts[1] == "" {
		return "", fmt.Errorf("unexpected topic %q", topic)
	}
	return parts[1], nil
}
