package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"courtpulse/internal/app"
	"courtpulse/internal/model"
	"courtpulse/internal/transport/http/response"
)

// LedgerAdmin is the slice of app.LedgerService behind the admin surface.
type LedgerAdmin interface {
	OpenSessions(ctx context.Context, courtID string) ([]model.Session, error)
	UserHistory(ctx context.Context, userID string, limit int) ([]model.Session, error)
	ActiveSession(ctx context.Context, userID string) (*model.Session, error)
	CloseAll(ctx context.Context, courtID string) (int, error)
}

type AdminHandler struct {
	ledger LedgerAdmin
}

func NewAdminHandler(ledger LedgerAdmin) *AdminHandler {
	return &AdminHandler{ledger: ledger}
}

func (h *AdminHandler) OpenSessions(c *gin.Context) {
	courtID := strings.TrimSpace(c.Param("courtId"))
	if courtID == "" {
		response.Error(c, http.StatusBadRequest, msgMissingCourtID)
		return
	}

	sessions, err := h.ledger.OpenSessions(c.Request.Context(), courtID)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, msgMissingCourtID)
			return
		}
		log.Printf("list open sessions failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to list open sessions.")
		return
	}

	response.OK(c, sessions)
}

func (h *AdminHandler) UserHistory(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		response.Error(c, http.StatusBadRequest, "Missing userId parameter.")
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	sessions, err := h.ledger.UserHistory(c.Request.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, "Missing userId parameter.")
			return
		}
		log.Printf("list user history failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to list session history.")
		return
	}

	response.OK(c, sessions)
}

func (h *AdminHandler) ActiveSession(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		response.Error(c, http.StatusBadRequest, "Missing userId parameter.")
		return
	}

	session, err := h.ledger.ActiveSession(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "Missing userId parameter.")
		case errors.Is(err, app.ErrLedgerCorrupt):
			log.Printf("active session lookup failed: %v", err)
			response.Error(c, http.StatusInternalServerError, "Ledger inconsistency detected.")
		default:
			log.Printf("active session lookup failed: %v", err)
			response.Error(c, http.StatusInternalServerError, "Failed to look up active session.")
		}
		return
	}
	if session == nil {
		response.Error(c, http.StatusNotFound, "No active check-in found for this user.")
		return
	}

	response.OK(c, session)
}

func (h *AdminHandler) CloseAll(c *gin.Context) {
	courtID := strings.TrimSpace(c.Param("courtId"))
	if courtID == "" {
		response.Error(c, http.StatusBadRequest, msgMissingCourtID)
		return
	}

	closed, err := h.ledger.CloseAll(c.Request.Context(), courtID)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, msgMissingCourtID)
			return
		}
		log.Printf("close all sessions failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to close sessions.")
		return
	}

	response.OK(c, gin.H{"closed": closed})
}
