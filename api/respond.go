package api

import (
	"github.com/gin-gonic/gin"

	"github.com/voltride/voltride-backend/internal/query"
)

// envelope is the shape of every response body.
type envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Count      *int              `json:"count,omitempty"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// respondList reports the number of items in this page alongside next/prev
// cursors.
func respondList(c *gin.Context, data any, count int, p query.Pagination) {
	c.JSON(200, envelope{
		Success:    true,
		Data:       data,
		Count:      &count,
		Pagination: &p,
	})
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Success: true, Message: msg})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Success: false, Message: msg})
}
