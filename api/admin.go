package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type fleetStats struct {
	Bikes map[string]int64 `json:"bikes"`
	Rides map[string]int64 `json:"rides"`
}

// statsHandler reports fleet and ride counts grouped by status.
func (a *API) statsHandler(c *gin.Context) {
	bikeCounts, err := a.bikes.CountByStatus(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	rideCounts, err := a.rides.CountByStatus(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	stats := fleetStats{
		Bikes: make(map[string]int64, len(bikeCounts)),
		Rides: make(map[string]int64, len(rideCounts)),
	}
	for status, n := range bikeCounts {
		stats.Bikes[string(status)] = n
	}
	for status, n := range rideCounts {
		stats.Rides[string(status)] = n
	}

	respondData(c, http.StatusOK, stats)
}
