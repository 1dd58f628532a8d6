package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltride/voltride-backend/internal/middleware"
	"github.com/voltride/voltride-backend/internal/query"
)

func (a *API) listPaymentsHandler(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	payments, err := a.payments.ListByUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	respondList(c, payments, len(payments), query.Pagination{})
}

func (a *API) getPaymentHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	p, err := a.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if p.UserID.Hex() != userID && !middleware.IsAdmin(c) {
		respondError(c, http.StatusUnauthorized, "not authorized for this payment")
		return
	}

	respondData(c, http.StatusOK, p)
}
