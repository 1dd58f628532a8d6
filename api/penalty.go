package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltride/voltride-backend/internal/middleware"
	"github.com/voltride/voltride-backend/internal/query"
	"github.com/voltride/voltride-backend/payment"
)

func (a *API) listPenaltiesHandler(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	penalties, err := a.penalties.ListByUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	respondList(c, penalties, len(penalties), query.Pagination{})
}

type payPenaltyRequest struct {
	Method payment.Method `json:"paymentMethod"`
}

// payPenaltyHandler settles a pending penalty. The penalty is claimed through
// the pending-only guard before the processor charge, so concurrent pay
// requests cannot both reach the processor; a failed charge reopens it.
func (a *API) payPenaltyHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req payPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	method := req.Method
	if method == "" {
		method = payment.MethodCard
	}

	pen, err := a.penalties.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if pen.UserID.Hex() != userID {
		respondError(c, http.StatusUnauthorized, "not authorized for this penalty")
		return
	}

	p := payment.Payment{
		RideID:      pen.RideID,
		UserID:      pen.UserID,
		Amount:      pen.Amount,
		Method:      method,
		Description: "Penalty payment",
	}
	if err := a.payments.Create(c.Request.Context(), &p); err != nil {
		handleError(c, err)
		return
	}

	// Claim the penalty first. Of two concurrent requests only one passes
	// the pending guard; the other fails here, before any money moves.
	pen, err = a.penalties.Pay(c.Request.Context(), pen.ID.Hex(), p.ID.Hex())
	if err != nil {
		if markErr := a.payments.MarkFailed(c.Request.Context(), p.ID.Hex()); markErr != nil {
			logger.Error("failed to mark payment failed", "payment_id", p.ID.Hex(), "error", markErr)
		}
		handleError(c, err)
		return
	}

	txnID, err := a.processor.Charge(c.Request.Context(), p)
	if err != nil {
		logger.Error("penalty payment failed", "penalty_id", pen.ID.Hex(), "error", err)
		if markErr := a.payments.MarkFailed(c.Request.Context(), p.ID.Hex()); markErr != nil {
			logger.Error("failed to mark payment failed", "payment_id", p.ID.Hex(), "error", markErr)
		}
		if _, reopenErr := a.penalties.Reopen(c.Request.Context(), pen.ID.Hex()); reopenErr != nil {
			logger.Error("failed to reopen penalty", "penalty_id", pen.ID.Hex(), "error", reopenErr)
		}
		respondError(c, http.StatusBadGateway, "payment could not be processed")
		return
	}
	if err := a.payments.MarkCompleted(c.Request.Context(), p.ID.Hex(), txnID); err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, pen)
}

type disputePenaltyRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (a *API) disputePenaltyHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req disputePenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pen, err := a.penalties.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if pen.UserID.Hex() != userID {
		respondError(c, http.StatusUnauthorized, "not authorized for this penalty")
		return
	}

	pen, err = a.penalties.Dispute(c.Request.Context(), pen.ID.Hex(), req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, pen)
}
