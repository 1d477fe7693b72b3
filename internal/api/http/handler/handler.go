package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stokhub/internal/apperrors"
	"stokhub/internal/model"
)

const (
	StatusErr          = "error"
	StatusSuccess      = "success"
	StatusNotAvailable = "not available"
	StatusNotPermitted = "not permitted"
	StatusOK           = "ok"
)

type BaseHandler struct{}

func (h *BaseHandler) GetUserID(c *gin.Context) (int64, error) {
	raw, exists := c.Get(model.UserIDKey)
	if !exists {
		return 0, apperrors.ErrContextValueDoesNotExist
	}

	str, ok := raw.(string)
	if !ok {
		return 0, apperrors.ErrContextValueInvalidType
	}

	id, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, apperrors.ErrContextValueInvalidType
	}

	return id, nil
}

func (h *BaseHandler) GetStringValue(c *gin.Context, key string) (string, error) {
	raw, exists := c.Get(key)
	if !exists {
		return "", apperrors.ErrContextValueDoesNotExist
	}

	str, ok := raw.(string)
	if !ok {
		return "", apperrors.ErrContextValueInvalidType
	}

	return str, nil
}

func (h *BaseHandler) GetBoolValue(c *gin.Context, key string) (bool, error) {
	raw, exists := c.Get(key)
	if !exists {
		return false, apperrors.ErrContextValueDoesNotExist
	}

	b, ok := raw.(bool)
	if !ok {
		return false, apperrors.ErrContextValueInvalidType
	}

	return b, nil
}

type ResponseWithData struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type ResponseWithMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "method not allowed on this endpoint",
	})
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "page not found",
	})
}
