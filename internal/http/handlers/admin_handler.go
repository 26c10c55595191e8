// Cache administration HTTP handlers.
//
// This file exposes operational endpoints for the AI response cache:
//   - POST /admin/cache/sweep  (delete entries past their TTL)
//   - GET  /admin/cache/stats  (entry counts and accumulated hits)
//
// Expired entries are also deleted lazily on read, so the sweep is a
// housekeeping aid rather than a correctness requirement.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mtheof/go-chat-functions/internal/http/middleware"
	"github.com/mtheof/go-chat-functions/internal/repo"
)

// SweepResponse reports the outcome of one cache sweep.
type SweepResponse struct {
	// Deleted is the number of expired entries removed.
	Deleted int64 `json:"deleted" example:"17"`
}

// SweepCache godoc
// @ID          sweepCache
// @Summary     Delete expired cache entries
// @Tags        Admin
// @Produce     json
//
// @Success     200  {object}  handlers.SweepResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/cache/sweep [post]
func (h *Handlers) SweepCache(c *gin.Context) {
	ctx := c.Request.Context()

	deleted, err := repo.PurgeExpiredCache(ctx, h.db, time.Now().UTC())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSweepFailed, err.Error())
		return
	}
	middleware.LoggerFrom(c).Info().Int64("deleted", deleted).Msg("cache sweep")
	ok(c, http.StatusOK, SweepResponse{Deleted: deleted})
}

// CacheStats godoc
// @ID          cacheStats
// @Summary     AI response cache statistics
// @Tags        Admin
// @Produce     json
//
// @Success     200  {object}  repo.CacheStats
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/cache/stats [get]
func (h *Handlers) CacheStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := repo.CountCacheStats(ctx, h.db, time.Now().UTC())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}
