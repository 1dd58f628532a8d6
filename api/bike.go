package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/voltride/voltride-backend/bike"
	"github.com/voltride/voltride-backend/internal/geo"
	"github.com/voltride/voltride-backend/internal/middleware"
	"github.com/voltride/voltride-backend/internal/query"
)

func (a *API) listBikesHandler(c *gin.Context) {
	params := query.Parse(c.Request.URL.Query())

	bikes, total, err := a.bikes.List(c.Request.Context(), params)
	if err != nil {
		handleError(c, err)
		return
	}

	respondList(c, bikes, len(bikes), params.Paginate(total))
}

func (a *API) availableBikesHandler(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		respondError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}

	distance, err := strconv.ParseFloat(c.DefaultQuery("distance", "5"), 64)
	if err != nil || distance <= 0 {
		respondError(c, http.StatusBadRequest, "invalid distance")
		return
	}
	unit := c.DefaultQuery("unit", "km")

	bikes, err := a.bikes.FindNearby(c.Request.Context(), lat, lng, distance, unit)
	if err != nil {
		handleError(c, err)
		return
	}

	count := len(bikes)
	respondList(c, bikes, count, query.Pagination{})
}

func (a *API) getBikeHandler(c *gin.Context) {
	b, err := a.bikes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, b)
}

type bikeRequest struct {
	BikeNumber     string  `json:"bikeNumber" binding:"required"`
	Model          string  `json:"model" binding:"required"`
	Description    string  `json:"description"`
	BatteryLevel   float64 `json:"batteryLevel"`
	Range          float64 `json:"range"`
	Status         string  `json:"status"`
	PricePerMinute float64 `json:"pricePerMinute"`
	PricePerKm     float64 `json:"pricePerKm"`
	BaseFare       float64 `json:"baseFare"`
	ImageURL       string  `json:"imageUrl"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Address        string  `json:"address"`
}

func (r bikeRequest) toBike() (bike.Bike, error) {
	status := bike.Status(r.Status)
	if r.Status == "" {
		status = bike.StatusAvailable
	}
	if !status.Valid() {
		return bike.Bike{}, bike.ErrInvalidStatus
	}

	loc := geo.NewPoint(r.Latitude, r.Longitude)
	loc.FormattedAddress = r.Address

	return bike.Bike{
		BikeNumber:     r.BikeNumber,
		Model:          r.Model,
		Description:    r.Description,
		BatteryLevel:   r.BatteryLevel,
		Range:          r.Range,
		Status:         status,
		PricePerMinute: r.PricePerMinute,
		PricePerKm:     r.PricePerKm,
		BaseFare:       r.BaseFare,
		ImageURL:       r.ImageURL,
		Location:       loc,
	}, nil
}

func (a *API) createBikeHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req bikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := req.toBike()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.bikes.Insert(c.Request.Context(), &b); err != nil {
		handleError(c, err)
		return
	}

	logger.Info("bike registered", "bike_number", b.BikeNumber)
	respondData(c, http.StatusCreated, b)
}

func (a *API) updateBikeHandler(c *gin.Context) {
	var req bikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := req.toBike()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.bikes.Update(c.Request.Context(), c.Param("id"), b); err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, b)
}

func (a *API) deleteBikeHandler(c *gin.Context) {
	if err := a.bikes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "bike deleted")
}
