package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stokhub/internal/apperrors"
	"stokhub/internal/model"
)

type StokHareketService interface {
	GetByID(ctx context.Context, id int64) (*model.StokHareket, error)
	Recent(ctx context.Context, count int, admin bool, rawSubeIDs string) ([]model.StokHareket, error)
}

type StokHareketHandler struct {
	BaseHandler
	log *zap.Logger
	svc StokHareketService
}

func NewStokHareketHandler(log *zap.Logger, svc StokHareketService) *StokHareketHandler {
	return &StokHareketHandler{
		log: log,
		svc: svc,
	}
}

func (h *StokHareketHandler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusErr,
			Message: "invalid movement id",
		})

		return
	}

	rec, err := h.svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrMovementDoesNotExist) {
			c.JSON(http.StatusNotFound, ResponseWithMessage{
				Status:  StatusErr,
				Message: err.Error(),
			})

			return
		}

		c.JSON(http.StatusInternalServerError, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   rec,
	})
}

func (h *StokHareketHandler) Recent(c *gin.Context) {
	ctx := c.Request.Context()

	count, _ := strconv.Atoi(c.DefaultQuery("count", "0"))

	admin, err := h.GetBoolValue(c, model.UserAdminKey)
	if err != nil {
		admin = false
	}

	rawSubeIDs, err := h.GetStringValue(c, model.UserSubeIDsKey)
	if err != nil {
		rawSubeIDs = ""
	}

	recs, err := h.svc.Recent(ctx, count, admin, rawSubeIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   recs,
	})
}
