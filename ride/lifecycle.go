package ride

import (
	"context"
	"log/slog"
	"time"

	"github.com/voltride/voltride-backend/bike"
	"github.com/voltride/voltride-backend/internal/geo"
)

// Store is the ride persistence the lifecycle runs against.
type Store interface {
	Get(ctx context.Context, id string) (Ride, error)
	Insert(ctx context.Context, r *Ride) error
	Start(ctx context.Context, id string, startTime time.Time, startImage string) (Ride, error)
	// Complete applies the ride completion and the bike release as one
	// atomic write.
	Complete(ctx context.Context, c Completion) (Ride, error)
	Rate(ctx context.Context, id string, rating int, review string) (Ride, error)
	Cancel(ctx context.Context, id string) (Ride, error)
}

// BikeStore is the slice of the bike registry the lifecycle needs.
type BikeStore interface {
	Get(ctx context.Context, id string) (bike.Bike, error)
	MarkInUse(ctx context.Context, id string) error
	MarkAvailable(ctx context.Context, id string) error
}

// UserStore resolves the acting user's document-verification flag.
type UserStore interface {
	IsDocumentVerified(ctx context.Context, id string) (bool, error)
}

// ParkingValidator checks whether a drop-off location is inside a designated
// parking zone.
type ParkingValidator interface {
	ValidParking(ctx context.Context, lat, lng float64) (bool, error)
}

// PenaltyRecorder records an invalid-parking penalty against a completed ride.
type PenaltyRecorder interface {
	RecordInvalidParking(ctx context.Context, userID, rideID string, amount float64, description string) error
}

// Completion carries everything the store must persist when a ride ends: the
// ride's terminal fields and the compensating bike update.
type Completion struct {
	RideID string

	EndTime    time.Time
	DistanceKm float64
	Duration   int
	Fare       Fare
	EndImage   string
	HasPenalty bool

	BikeID       string
	BatteryLevel float64
}

// Lifecycle orchestrates ride state transitions over injected stores.
type Lifecycle struct {
	rides Store
	bikes BikeStore
	users UserStore

	parking   ParkingValidator
	penalties PenaltyRecorder

	logger *slog.Logger
	now    func() time.Time
}

func NewLifecycle(rides Store, bikes BikeStore, users UserStore) *Lifecycle {
	return &Lifecycle{
		rides:  rides,
		bikes:  bikes,
		users:  users,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// WithLogger replaces the lifecycle's logger.
func (l *Lifecycle) WithLogger(logger *slog.Logger) *Lifecycle {
	l.logger = logger
	return l
}

// WithParkingEnforcement enables the invalid-parking penalty on ride
// completion.
func (l *Lifecycle) WithParkingEnforcement(zones ParkingValidator, penalties PenaltyRecorder) *Lifecycle {
	l.parking = zones
	l.penalties = penalties
	return l
}

// Create books a bike for a verified user. The bike is locked (in-use) as
// soon as the ride is booked, before the ride starts.
func (l *Lifecycle) Create(ctx context.Context, userID, bikeID string, source, destination geo.Point) (Ride, error) {
	verified, err := l.users.IsDocumentVerified(ctx, userID)
	if err != nil {
		return Ride{}, err
	}
	if !verified {
		return Ride{}, ErrUserNotVerified
	}

	b, err := l.bikes.Get(ctx, bikeID)
	if err != nil {
		return Ride{}, err
	}
	if b.Status != bike.StatusAvailable {
		return Ride{}, bike.ErrNotAvailable
	}

	// Lock the bike first so a concurrent booking for the same bike fails
	// on the conditional update rather than leaving two booked rides.
	if err := l.bikes.MarkInUse(ctx, bikeID); err != nil {
		return Ride{}, err
	}

	now := l.now()
	r := Ride{
		Source:      source,
		Destination: destination,
		Status:      StatusBooked,
		Payment:     PaymentInfo{Status: PaymentPending, Method: "card"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.setRefs(userID, bikeID); err != nil {
		return Ride{}, err
	}

	if err := l.rides.Insert(ctx, &r); err != nil {
		// Release the lock; otherwise the bike stays in-use with no ride
		// referencing it.
		_ = l.bikes.MarkAvailable(ctx, bikeID)
		return Ride{}, err
	}
	return r, nil
}

// Start moves a booked ride to active and stamps the start time.
func (l *Lifecycle) Start(ctx context.Context, rideID, userID, startImage string) (Ride, error) {
	r, err := l.owned(ctx, rideID, userID)
	if err != nil {
		return Ride{}, err
	}
	if r.Status != StatusBooked {
		return Ride{}, &StateError{Op: "started", Status: r.Status}
	}

	return l.rides.Start(ctx, rideID, l.now(), startImage)
}

// End completes an active ride: it derives duration and distance, computes
// the fare, drains the bike battery and releases the bike. The ride update
// and the bike release are persisted atomically by the store.
func (l *Lifecycle) End(ctx context.Context, rideID, userID, endImage string) (Ride, error) {
	r, err := l.owned(ctx, rideID, userID)
	if err != nil {
		return Ride{}, err
	}
	if r.Status != StatusActive {
		return Ride{}, &StateError{Op: "ended", Status: r.Status}
	}

	b, err := l.bikes.Get(ctx, r.BikeID.Hex())
	if err != nil {
		return Ride{}, err
	}

	endTime := l.now()
	duration := DurationMinutes(*r.StartTime, endTime)
	distance := EstimateDistance(duration)
	fare := CalculateFare(b.Pricing(), distance, duration)

	hasPenalty := false
	if l.parking != nil && r.Destination.Valid() {
		ok, err := l.parking.ValidParking(ctx, r.Destination.Lat(), r.Destination.Lng())
		if err != nil {
			return Ride{}, err
		}
		hasPenalty = !ok
	}

	completed, err := l.rides.Complete(ctx, Completion{
		RideID:       rideID,
		EndTime:      endTime,
		DistanceKm:   distance,
		Duration:     duration,
		Fare:         fare,
		EndImage:     endImage,
		HasPenalty:   hasPenalty,
		BikeID:       r.BikeID.Hex(),
		BatteryLevel: DrainBattery(b.BatteryLevel, distance),
	})
	if err != nil {
		return Ride{}, err
	}

	if hasPenalty && l.penalties != nil {
		err := l.penalties.RecordInvalidParking(ctx, userID, rideID,
			invalidParkingAmount, "Bike parked outside designated area")
		if err != nil {
			// The completion is already persisted and the bike released;
			// a failed penalty write must not fail the ride.
			l.logger.Error("invalid parking penalty not recorded",
				slog.String("ride_id", rideID),
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return completed, nil
}

const invalidParkingAmount = 100.0

// Rate attaches a 1-5 rating and an optional review to a completed ride.
func (l *Lifecycle) Rate(ctx context.Context, rideID, userID string, rating int, review string) (Ride, error) {
	if rating == 0 {
		return Ride{}, ErrMissingRating
	}
	if rating < 1 || rating > 5 {
		return Ride{}, ErrInvalidRating
	}

	r, err := l.owned(ctx, rideID, userID)
	if err != nil {
		return Ride{}, err
	}
	if r.Status != StatusCompleted {
		return Ride{}, &StateError{Op: "rated", Status: r.Status}
	}

	return l.rides.Rate(ctx, rideID, rating, review)
}

// Cancel aborts a booked ride before it starts and releases the bike.
func (l *Lifecycle) Cancel(ctx context.Context, rideID, userID string) (Ride, error) {
	r, err := l.owned(ctx, rideID, userID)
	if err != nil {
		return Ride{}, err
	}
	if r.Status != StatusBooked {
		return Ride{}, &StateError{Op: "cancelled", Status: r.Status}
	}

	cancelled, err := l.rides.Cancel(ctx, rideID)
	if err != nil {
		return Ride{}, err
	}
	if err := l.bikes.MarkAvailable(ctx, r.BikeID.Hex()); err != nil {
		return Ride{}, err
	}
	return cancelled, nil
}

// owned fetches a ride and verifies the acting user owns it.
func (l *Lifecycle) owned(ctx context.Context, rideID, userID string) (Ride, error) {
	r, err := l.rides.Get(ctx, rideID)
	if err != nil {
		return Ride{}, err
	}
	if !r.OwnedBy(userID) {
		return Ride{}, ErrNotOwner
	}
	return r, nil
}
