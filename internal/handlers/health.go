package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	Environment    string `json:"environment"`
}

// Health is the read-only probe. Its only side effect is the opportunistic
// admin bootstrap, which is a single existence check once the record is in
// place.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if state, err := h.auth.EnsureAdmin(ctx); err != nil {
		h.log.Warn().Err(err).Str("state", string(state)).Msg("admin bootstrap failed")
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:         "online",
		ActiveSessions: h.sessions.Count(),
		Environment:    h.cfg.Environment,
	})
}
