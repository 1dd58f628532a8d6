package telemetry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/voltride/voltride-backend/ride"
)

type fakeBikeStore struct {
	lastID      string
	lat, lng    float64
	battery     float64
	updateCalls int
}

func (f *fakeBikeStore) UpdateTelemetry(_ context.Context, id string, lat, lng, battery float64) error {
	f.lastID = id
	f.lat, f.lng, f.battery = lat, lng, battery
	f.updateCalls++
	return nil
}

type fakeRideStore struct {
	active map[string]*ride.Ride
}

func (f *fakeRideStore) FindActiveByBike(_ context.Context, bikeID string) (*ride.Ride, error) {
	return f.active[bikeID], nil
}

type fakeIncidentStore struct {
	recorded []Incident
}

func (f *fakeIncidentStore) Record(_ context.Context, inc Incident) error {
	f.recorded = append(f.recorded, inc)
	return nil
}

func newTestSubscriber(bikes *fakeBikeStore, rides *fakeRideStore, incidents *fakeIncidentStore) *Subscriber {
	return &Subscriber{
		bikes:     bikes,
		rides:     rides,
		incidents: incidents,
		logger:    slog.Default(),
	}
}

func TestBikeIDFromTopic(t *testing.T) {
	id, err := bikeIDFromTopic("bikes/665f1a2b3c4d5e6f7a8b9c0d/status")
	require.NoError(t, err)
	assert.Equal(t, "665f1a2b3c4d5e6f7a8b9c0d", id)

	_, err = bikeIDFromTopic("fleet/abc/status")
	assert.Error(t, err)

	_, err = bikeIDFromTopic("bikes//status")
	assert.Error(t, err)
}

func TestProcessStatus(t *testing.T) {
	bikes := &fakeBikeStore{}
	sub := newTestSubscriber(bikes, &fakeRideStore{}, &fakeIncidentStore{})

	var update StatusUpdate
	update.Location.Latitude = 28.6139
	update.Location.Longitude = 77.209
	battery := 72.5
	update.BatteryLevel = &battery

	require.NoError(t, sub.ProcessStatus(context.Background(), "bike-1", update))
	assert.Equal(t, "bike-1", bikes.lastID)
	assert.Equal(t, 28.6139, bikes.lat)
	assert.Equal(t, 77.209, bikes.lng)
	assert.Equal(t, 72.5, bikes.battery)
}

func TestProcessStatusWithoutBatteryReading(t *testing.T) {
	bikes := &fakeBikeStore{}
	sub := newTestSubscriber(bikes, &fakeRideStore{}, &fakeIncidentStore{})

	var update StatusUpdate
	update.Location.Latitude = 28.6139
	update.Location.Longitude = 77.209

	require.NoError(t, sub.ProcessStatus(context.Background(), "bike-1", update))
	// The sentinel tells the store to keep the stored battery level.
	assert.Equal(t, -1.0, bikes.battery)
}

func TestProcessAlarmRecordsIncident(t *testing.T) {
	bikeID := primitive.NewObjectID()
	active := &ride.Ride{
		ID:     primitive.NewObjectID(),
		UserID: primitive.NewObjectID(),
		BikeID: bikeID,
		Status: ride.StatusActive,
	}

	rides := &fakeRideStore{active: map[string]*ride.Ride{bikeID.Hex(): active}}
	incidents := &fakeIncidentStore{}
	sub := newTestSubscriber(&fakeBikeStore{}, rides, incidents)

	event := AlarmEvent{Type: "tamper", Description: "Lock forced", Latitude: 28.6, Longitude: 77.2}
	require.NoError(t, sub.ProcessAlarm(context.Background(), bikeID.Hex(), event))

	require.Len(t, incidents.recorded, 1)
	inc := incidents.recorded[0]
	assert.Equal(t, active.ID, inc.RideID)
	assert.Equal(t, active.UserID, inc.UserID)
	assert.Equal(t, "tamper", inc.Type)
	assert.Equal(t, "Lock forced", inc.Description)
}

func TestProcessAlarmIdleBikeDropped(t *testing.T) {
	incidents := &fakeIncidentStore{}
	sub := newTestSubscriber(&fakeBikeStore{}, &fakeRideStore{}, incidents)

	err := sub.ProcessAlarm(context.Background(), primitive.NewObjectID().Hex(), AlarmEvent{Type: "tamper"})
	require.NoError(t, err)
	assert.Empty(t, incidents.recorded)
}

func TestNewIncidentDefaults(t *testing.T) {
	active := &ride.Ride{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
	inc := NewIncident(primitive.NewObjectID().Hex(), active, AlarmEvent{})

	assert.Equal(t, "unknown", inc.Type)
	assert.Equal(t, "Alarm triggered", inc.Description)
	assert.False(t, inc.CreatedAt.IsZero())
}
