package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stokhub/internal/apperrors"
	"stokhub/internal/service"
)

type HealthService interface {
	Check(ctx context.Context) service.HealthReport
}

type HealthHandler struct {
	BaseHandler

	log *zap.Logger
	svc HealthService
}

func NewHealthHandler(log *zap.Logger, svc HealthService) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{},
		log:         log,
		svc:         svc,
	}
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "pong",
	})
}

func (h *HealthHandler) ProtectedPing(c *gin.Context) {
	userID, err := h.GetUserID(c)
	if err != nil {
		if errors.Is(err, apperrors.ErrContextValueDoesNotExist) {
			c.JSON(http.StatusUnauthorized, ResponseWithMessage{
				Status:  StatusNotPermitted,
				Message: "no data about the user",
			})

			return
		}

		c.JSON(http.StatusForbidden, ResponseWithMessage{
			Status:  StatusNotPermitted,
			Message: "invalid user data format",
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("pong + %d", userID),
	})
}

// Health reports database and relay reachability. A degraded report is
// still a 503 so load balancers can pull the instance.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	report := h.svc.Check(ctx)

	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, ResponseWithData{
		Status: StatusSuccess,
		Data:   report,
	})
}
