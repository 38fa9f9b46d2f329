package handlers

import (
	"net/http"
	"time"

	"lot-bidding/internal/services"
	"lot-bidding/pkg/logger"
	valid "lot-bidding/pkg/validator"

	"github.com/labstack/echo/v4"
)

type CreateLotRequest struct {
	ID           string    `json:"id" validate:"omitempty,max=64"`
	AuctionID    string    `json:"auction_id" validate:"required,max=64"`
	StartBid     int64     `json:"start_bid" validate:"gt=0"`
	MinIncrement int64     `json:"min_increment" validate:"gt=0"`
	EndsAt       time.Time `json:"ends_at" validate:"required"`
}

type AdminHandler struct {
	adminService *services.LotAdminService
	log          logger.Logger
}

func NewAdminHandler(adminService *services.LotAdminService, log logger.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		log:          log,
	}
}

func (h *AdminHandler) CreateLot(c echo.Context) error {
	var req CreateLotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: valid.Describe(err)})
	}

	lot, err := h.adminService.CreateLot(c.Request().Context(), services.CreateLotInput{
		ID:           req.ID,
		AuctionID:    req.AuctionID,
		StartBid:     req.StartBid,
		MinIncrement: req.MinIncrement,
		EndsAt:       req.EndsAt,
	})
	if err != nil {
		return writeBidError(c, err)
	}

	return c.JSON(http.StatusCreated, lot)
}

func (h *AdminHandler) RevokeBid(c echo.Context) error {
	lot, err := h.adminService.RevokeBid(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeBidError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}
