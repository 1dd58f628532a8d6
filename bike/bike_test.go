package bike

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRadiusConversion(t *testing.T) {
	assert.InDelta(t, 10.0/6378, Radius(10, "km"), 1e-12)
	assert.InDelta(t, 10.0/3963, Radius(10, "mi"), 1e-12)
	// Unknown units fall back to km.
	assert.InDelta(t, 10.0/6378, Radius(10, ""), 1e-12)
}

func TestActive(t *testing.T) {
	cases := []struct {
		name    string
		battery float64
		status  Status
		want    bool
	}{
		{"available with charge", 80, StatusAvailable, true},
		{"charging with charge", 45, StatusCharging, true},
		{"battery at threshold", 10, StatusAvailable, false},
		{"in use", 80, StatusInUse, false},
		{"disabled", 80, StatusDisabled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Bike{BatteryLevel: tc.battery, Status: tc.status}
			assert.Equal(t, tc.want, b.Active())
		})
	}
}

func TestUpdateSetPreservesAuditFields(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := Bike{
		BikeNumber:   "VOLT-0042",
		Model:        "City S",
		BatteryLevel: 0,
		Status:       StatusMaintenance,
		CreatedAt:    created,
	}

	set := updateSet(b)

	// A full update must never rewrite identity or history.
	assert.NotContains(t, set, "createdAt")
	assert.NotContains(t, set, "_id")
	assert.NotContains(t, set, "lastUsed")
	assert.NotContains(t, set, "lastMaintenance")

	assert.Equal(t, "VOLT-0042", set["bikeNumber"])
	assert.Equal(t, StatusMaintenance, set["status"])
	assert.Equal(t, 0.0, set["batteryLevel"])
	assert.Contains(t, set, "updatedAt")
}

func TestUpdateSetCarriesMaintenanceDate(t *testing.T) {
	when := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	set := updateSet(Bike{LastMaintenance: &when})
	assert.Equal(t, &when, set["lastMaintenance"])
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusAvailable, StatusInUse, StatusMaintenance, StatusCharging, StatusDisabled} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("broken").Valid())
}
