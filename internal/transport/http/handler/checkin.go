package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"courtpulse/internal/app"
	"courtpulse/internal/model"
	"courtpulse/internal/transport/http/response"
)

const (
	msgMissingFields    = "Missing required fields: userId and courtId"
	msgAlreadyCheckedIn = "User is already checked in at another court."
	msgNoActiveSession  = "No active check-in found for this user at the specified court."
	msgCheckInFailed    = "Failed to check in."
	msgCheckOutFailed   = "Failed to check out."
	msgMissingCourtID   = "Missing courtId parameter."
	msgHeadCountFailed  = "Failed to retrieve head count."
)

// Ledger is the slice of app.LedgerService the check-in endpoints need.
type Ledger interface {
	CheckIn(ctx context.Context, userID, courtID string) (*model.Session, error)
	CheckOut(ctx context.Context, userID, courtID string) (*model.Session, error)
	HeadCount(ctx context.Context, courtID string) (int64, error)
}

type CheckinHandler struct {
	ledger Ledger
}

type checkinRequest struct {
	UserID  string `json:"userId"`
	CourtID string `json:"courtId"`
}

type headCountResponse struct {
	HeadCount int64 `json:"headCount"`
}

func NewCheckinHandler(ledger Ledger) *CheckinHandler {
	return &CheckinHandler{ledger: ledger}
}

func (h *CheckinHandler) CheckIn(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgMissingFields)
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.CourtID) == "" {
		response.Error(c, http.StatusBadRequest, msgMissingFields)
		return
	}

	session, err := h.ledger.CheckIn(c.Request.Context(), req.UserID, req.CourtID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, msgMissingFields)
		case errors.Is(err, app.ErrAlreadyCheckedIn):
			response.Error(c, http.StatusBadRequest, msgAlreadyCheckedIn)
		default:
			log.Printf("check in failed: %v", err)
			response.Error(c, http.StatusInternalServerError, msgCheckInFailed)
		}
		return
	}

	response.OK(c, session)
}

func (h *CheckinHandler) CheckOut(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgMissingFields)
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.CourtID) == "" {
		response.Error(c, http.StatusBadRequest, msgMissingFields)
		return
	}

	session, err := h.ledger.CheckOut(c.Request.Context(), req.UserID, req.CourtID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, msgMissingFields)
		case errors.Is(err, app.ErrNoActiveSession):
			response.Error(c, http.StatusBadRequest, msgNoActiveSession)
		default:
			log.Printf("check out failed: %v", err)
			response.Error(c, http.StatusInternalServerError, msgCheckOutFailed)
		}
		return
	}

	response.OK(c, session)
}

func (h *CheckinHandler) HeadCount(c *gin.Context) {
	courtID := strings.TrimSpace(c.Query("courtId"))
	if courtID == "" {
		response.Error(c, http.StatusBadRequest, msgMissingCourtID)
		return
	}

	count, err := h.ledger.HeadCount(c.Request.Context(), courtID)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, msgMissingCourtID)
			return
		}
		log.Printf("head count failed: %v", err)
		response.Error(c, http.StatusInternalServerError, msgHeadCountFailed)
		return
	}

	response.OK(c, headCountResponse{HeadCount: count})
}
