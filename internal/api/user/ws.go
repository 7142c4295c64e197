package user

import (
	"errors"
	"net/http"

	"github.com/codearena/codearena/internal/auth"
	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleVerdictWs streams judging progress and the final verdict for one
// submission. Browsers cannot set headers on websocket requests, so the JWT
// arrives as a query parameter.
func (h *Handler) handleVerdictWs(c *gin.Context) {
	submissionID := c.Param("id")
	tokenString := c.Query("token")

	if tokenString == "" {
		c.String(http.StatusUnauthorized, "token query parameter is required")
		return
	}

	claims, err := auth.ValidateJWT(tokenString, h.cfg.Auth.JWT.Secret)
	if err != nil {
		c.String(http.StatusUnauthorized, "invalid token")
		return
	}
	userID := claims.Subject

	// The submission row may not exist yet while judging is in flight; only
	// reject when it exists and belongs to someone else.
	sub, err := database.GetSubmission(h.db, submissionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.String(http.StatusInternalServerError, "failed to load submission")
		return
	}
	if sub != nil && sub.UserID != userID {
		c.String(http.StatusForbidden, "you can only view your own submissions")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.S().Errorf("failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	msgChan, unsubscribe := pubsub.GetBroker().Subscribe(submissionID)
	defer unsubscribe()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-clientClosed:
			return
		}
	}
}
