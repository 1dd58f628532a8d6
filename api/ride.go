package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voltride/voltride-backend/internal/geo"
	"github.com/voltride/voltride-backend/internal/middleware"
	"github.com/voltride/voltride-backend/internal/query"
	"github.com/voltride/voltride-backend/payment"
	"github.com/voltride/voltride-backend/ride"
)

func (a *API) listRidesHandler(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	rides, err := a.rides.ListByUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	respondList(c, rides, len(rides), query.Pagination{})
}

func (a *API) getRideHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	r, err := a.rides.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if !r.OwnedBy(userID) && !middleware.IsAdmin(c) {
		handleError(c, ride.ErrNotOwner)
		return
	}

	respondData(c, http.StatusOK, r)
}

type createRideRequest struct {
	BikeID      string  `json:"bikeId" binding:"required"`
	SourceLat   float64 `json:"sourceLat"`
	SourceLng   float64 `json:"sourceLng"`
	DestLat     float64 `json:"destinationLat"`
	DestLng     float64 `json:"destinationLng"`
	SourceAddr  string  `json:"sourceAddress"`
	DestAddress string  `json:"destinationAddress"`
}

func (a *API) createRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req createRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	source := geo.NewPoint(req.SourceLat, req.SourceLng)
	source.Address = req.SourceAddr
	dest := geo.NewPoint(req.DestLat, req.DestLng)
	dest.Address = req.DestAddress

	r, err := a.lifecycle.Create(c.Request.Context(), userID, req.BikeID, source, dest)
	if err != nil {
		handleError(c, err)
		return
	}

	logger.Info("ride booked", "ride_id", r.ID.Hex(), "bike_id", req.BikeID)
	respondData(c, http.StatusCreated, r)
}

// rideImageRequest carries an optional base64-encoded bike photo taken at the
// start or end of a ride.
type rideImageRequest struct {
	Image       string `json:"image"`
	ContentType string `json:"contentType"`
}

func (a *API) storeImage(c *gin.Context, folder string, req rideImageRequest) (string, bool) {
	if req.Image == "" {
		return "", true
	}

	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		respondError(c, http.StatusBadRequest, "image must be base64 encoded")
		return "", false
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	ref, err := a.media.Put(c.Request.Context(), folder, contentType, data)
	if err != nil {
		handleError(c, err)
		return "", false
	}
	return ref, true
}

func (a *API) startRideHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req rideImageRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	image, ok := a.storeImage(c, "ride-start", req)
	if !ok {
		return
	}

	r, err := a.lifecycle.Start(c.Request.Context(), c.Param("id"), userID, image)
	if err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, r)
}

type endRideRequest struct {
	rideImageRequest
	Method payment.Method `json:"paymentMethod"`
}

func (a *API) endRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req endRideRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	image, ok := a.storeImage(c, "ride-end", req.rideImageRequest)
	if !ok {
		return
	}

	r, err := a.lifecycle.End(c.Request.Context(), c.Param("id"), userID, image)
	if err != nil {
		handleError(c, err)
		return
	}

	method := req.Method
	if method == "" {
		method = payment.MethodCard
	}

	// Charge the fare off the request path. The ride is already completed;
	// payment failures surface on the payment record, not the ride response.
	go a.chargeFare(logger, r, method)

	respondData(c, http.StatusOK, r)
}

func (a *API) chargeFare(logger *slog.Logger, r ride.Ride, method payment.Method) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := payment.Payment{
		RideID:      r.ID,
		UserID:      r.UserID,
		Amount:      r.Fare.TotalFare,
		Method:      method,
		Description: "Ride fare",
	}
	if err := a.payments.Create(ctx, &p); err != nil {
		logger.Error("failed to record payment", "ride_id", r.ID.Hex(), "error", err)
		return
	}

	txnID, err := a.processor.Charge(ctx, p)
	if err != nil {
		logger.Error("payment failed", "ride_id", r.ID.Hex(), "error", err)
		if err := a.payments.MarkFailed(ctx, p.ID.Hex()); err != nil {
			logger.Error("failed to mark payment failed", "payment_id", p.ID.Hex(), "error", err)
		}
		_ = a.rides.UpdatePayment(ctx, r.ID.Hex(), ride.PaymentInfo{
			Status: ride.PaymentFailed,
			Method: string(method),
		})
		return
	}

	if err := a.payments.MarkCompleted(ctx, p.ID.Hex(), txnID); err != nil {
		logger.Error("failed to mark payment completed", "payment_id", p.ID.Hex(), "error", err)
		return
	}
	if err := a.rides.UpdatePayment(ctx, r.ID.Hex(), ride.PaymentInfo{
		Status:        ride.PaymentCompleted,
		Method:        string(method),
		TransactionID: txnID,
	}); err != nil {
		logger.Error("failed to update ride payment", "ride_id", r.ID.Hex(), "error", err)
		return
	}

	logger.Info("fare charged", "ride_id", r.ID.Hex(), "transaction_id", txnID)
}

type rateRideRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

func (a *API) rateRideHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req rateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	r, err := a.lifecycle.Rate(c.Request.Context(), c.Param("id"), userID, req.Rating, req.Review)
	if err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, r)
}

func (a *API) cancelRideHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	r, err := a.lifecycle.Cancel(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, r)
}
