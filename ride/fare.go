package ride

import (
	"math"
	"time"

	"github.com/voltride/voltride-backend/bike"
)

// taxRate is applied to the pre-tax fare sum.
const taxRate = 0.18

// kmPerMinute approximates ride distance from duration. This stands in for
// GPS telemetry: the MQTT feed reports bike positions but per-ride track
// recording is not built yet, so completed distance is derived from time.
const kmPerMinute = 0.3

// EstimateDistance derives the ride distance in km from its duration,
// rounded to one decimal place.
func EstimateDistance(durationMinutes int) float64 {
	return math.Round(float64(durationMinutes)*kmPerMinute*10) / 10
}

// DurationMinutes computes the ride duration, rounded to whole minutes.
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// CalculateFare computes the itemized fare for a ride of the given distance
// and duration under the bike's pricing.
func CalculateFare(p bike.Pricing, distanceKm float64, durationMinutes int) Fare {
	distanceCharge := round2(distanceKm * p.PricePerKm)
	timeCharge := round2(float64(durationMinutes) * p.PricePerMinute)
	taxes := round2(taxRate * (p.BaseFare + distanceCharge + timeCharge))

	return Fare{
		BaseFare:       p.BaseFare,
		DistanceCharge: distanceCharge,
		TimeCharge:     timeCharge,
		Taxes:          taxes,
		TotalFare:      round2(p.BaseFare + distanceCharge + timeCharge + taxes),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DrainBattery returns the battery level after covering the given distance,
// at 2 percentage points per km, clamped at zero.
func DrainBattery(level, distanceKm float64) float64 {
	return math.Max(0, level-distanceKm*2)
}
