// Device registration HTTP handlers.
//
// This file exposes the push-token lifecycle endpoints:
//   - PUT    /devices/token  (register or refresh the caller's token)
//   - DELETE /devices/token  (unregister on logout)
//
// Tokens are single-device: registering a new token replaces the previous
// one, so a user is only ever pushed to their latest device.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mtheof/go-chat-functions/internal/domain"
	"github.com/mtheof/go-chat-functions/internal/repo"
)

// RegisterTokenRequest is the JSON payload for registering a push token.
type RegisterTokenRequest struct {
	// Token is the FCM registration token of the caller's device.
	Token string `json:"token" binding:"required,min=1" example:"fcm-registration-token"`
	// DisplayName optionally refreshes the name shown in notifications.
	DisplayName string `json:"display_name" example:"Alice"`
}

// RegisterToken godoc
// @ID          registerToken
// @Summary     Register a push token
// @Description Stores the caller's device token, replacing any previous one.
// @Tags        Devices
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                        true  "Requesting user"  example(user123)
// @Param       body       body    handlers.RegisterTokenRequest true  "Token payload"
//
// @Success     204  "Registered"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /devices/token [put]
func (h *Handlers) RegisterToken(c *gin.Context) {
	ctx := c.Request.Context()

	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token required")
		return
	}

	dev := &domain.UserDevice{
		UserID:      userID(c),
		DisplayName: req.DisplayName,
		Token:       req.Token,
	}
	if err := repo.SaveUserDevice(ctx, h.db, dev, time.Now().UTC()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		return
	}
	noContent(c)
}

// UnregisterToken godoc
// @ID          unregisterToken
// @Summary     Unregister the caller's push token
// @Description Blanks the stored token so the device stops receiving pushes.
// @Tags        Devices
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Requesting user"  example(user123)
//
// @Success     204  "Unregistered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /devices/token [delete]
func (h *Handlers) UnregisterToken(c *gin.Context) {
	ctx := c.Request.Context()

	if err := repo.ClearUserToken(ctx, h.db, userID(c), time.Now().UTC()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		return
	}
	noContent(c)
}
