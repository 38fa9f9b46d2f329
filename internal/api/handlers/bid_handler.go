package handlers

import (
	"net/http"

	"lot-bidding/internal/api/middleware"
	"lot-bidding/internal/domain"
	"lot-bidding/internal/services"
	"lot-bidding/pkg/logger"
	valid "lot-bidding/pkg/validator"

	"github.com/labstack/echo/v4"
)

var validate = valid.GetValidator()

type PlaceBidRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

type BidHandler struct {
	bidService *services.BidService
	log        logger.Logger
}

func NewBidHandler(bidService *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		log:        log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	lotID := c.Param("id")

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: valid.Describe(err)})
	}

	bid, err := h.bidService.PlaceBid(c.Request().Context(), middleware.UserID(c), lotID, req.Amount)
	if err != nil {
		return writeBidError(c, err)
	}

	return c.JSON(http.StatusCreated, bid)
}

func (h *BidHandler) GetLot(c echo.Context) error {
	lot, err := h.bidService.GetLot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeBidError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

func (h *BidHandler) ListBids(c echo.Context) error {
	bids, err := h.bidService.ListBids(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeBidError(c, err)
	}
	if bids == nil {
		bids = []*domain.Bid{}
	}
	return c.JSON(http.StatusOK, bids)
}

func (h *BidHandler) GetBid(c echo.Context) error {
	bid, err := h.bidService.GetBid(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeBidError(c, err)
	}
	return c.JSON(http.StatusOK, bid)
}
