package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltride/voltride-backend/internal/geo"
	"github.com/voltride/voltride-backend/internal/query"
	"github.com/voltride/voltride-backend/zone"
)

func (a *API) listZonesHandler(c *gin.Context) {
	zones, err := a.zones.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	respondList(c, zones, len(zones), query.Pagination{})
}

type createZoneRequest struct {
	Name string `json:"name" binding:"required"`
	// Ring is the exterior ring of the zone polygon as [lng, lat] pairs.
	Ring [][]float64 `json:"ring" binding:"required,min=3"`
}

func (a *API) createZoneHandler(c *gin.Context) {
	var req createZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	for _, pt := range req.Ring {
		if len(pt) != 2 {
			respondError(c, http.StatusBadRequest, "ring points must be [lng, lat] pairs")
			return
		}
	}

	z := zone.Zone{
		Name: req.Name,
		Geometry: geo.Polygon{
			Type:        "Polygon",
			Coordinates: [][][]float64{req.Ring},
		},
	}
	if err := a.zones.Insert(c.Request.Context(), &z); err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusCreated, z)
}
