package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// envelope is the JSON shape every API response uses, success or failure.
type envelope struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// Success writes a 200 with code 0 and the given payload.
func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, envelope{Data: data, Message: message})
}

// Error writes the given status with code -1. err may be an error or a plain
// string; anything else falls back to the standard status text.
func Error(c *gin.Context, status int, err interface{}) {
	msg := http.StatusText(status)
	switch v := err.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	}

	zap.S().Warnf("request rejected (%d): %s", status, msg)

	c.JSON(status, envelope{Code: -1, Message: msg})
}
