package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltride/voltride-backend/internal/middleware"
	"github.com/voltride/voltride-backend/user"
)

type registerRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone"`
	Password      string `json:"password" binding:"required,min=8"`
	AgreedToTerms bool   `json:"agreedToTerms"`
}

func (a *API) registerHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.AgreedToTerms {
		respondError(c, http.StatusBadRequest, "terms must be accepted")
		return
	}

	u := user.User{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		AgreedToTerms: true,
	}
	if err := a.users.Register(c.Request.Context(), &u, req.Password); err != nil {
		handleError(c, err)
		return
	}

	logger.Info("user registered", "user_id", u.ID.Hex())
	respondData(c, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// loginHandler is the credential-check endpoint consumed by the identity
// tenant's custom database connection. It verifies the password and returns
// the account; token issuance happens at the tenant.
func (a *API) loginHandler(c *gin.Context) {
	if subtle.ConstantTimeCompare([]byte(c.GetHeader("X-Auth-Secret")), []byte(a.authSecret)) != 1 {
		respondError(c, http.StatusUnauthorized, "invalid auth secret")
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	u, err := a.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, u)
}

func (a *API) meHandler(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	u, err := a.users.Get(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, u)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (a *API) updateMeHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.users.UpdateProfile(c.Request.Context(), userID, req.Name, req.Phone); err != nil {
		handleError(c, err)
		return
	}

	u, err := a.users.Get(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	respondData(c, http.StatusOK, u)
}

type submitDocumentRequest struct {
	DocType string `json:"docType" binding:"required"`
	DocID   string `json:"docId" binding:"required"`
}

// submitDocumentHandler records an identity document and checks it against
// the verification provider. Verification outcome is applied immediately.
func (a *API) submitDocumentHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req submitDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	doc := user.Document{DocType: req.DocType, DocID: req.DocID}
	if err := a.users.AddDocument(c.Request.Context(), userID, doc); err != nil {
		handleError(c, err)
		return
	}

	result, err := a.verifier.VerifyDocument(c.Request.Context(), req.DocType, req.DocID)
	if err != nil {
		logger.Error("document verification failed", "user_id", userID, "error", err)
		respondMessage(c, http.StatusAccepted, "document submitted, verification pending")
		return
	}

	if err := a.users.SetDocumentVerified(c.Request.Context(), userID, req.DocID, result.Verified); err != nil {
		handleError(c, err)
		return
	}

	logger.Info("document verified", "user_id", userID, "doc_type", req.DocType, "verified", result.Verified)
	u, err := a.users.Get(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	respondData(c, http.StatusOK, u)
}
