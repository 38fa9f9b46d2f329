package handlers

import (
	"errors"
	"net/http"

	"lot-bidding/internal/domain"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
	Minimum   *int64 `json:"minimum,omitempty"`
}

// writeBidError is the only place domain errors become HTTP statuses.
func writeBidError(c echo.Context, err error) error {
	var tooLow *domain.BidTooLowError

	switch {
	case errors.As(err, &tooLow):
		minimum := tooLow.Minimum
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: domain.ErrBidTooLow.Error(), Minimum: &minimum})
	case errors.Is(err, domain.ErrBusy):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: domain.ErrBusy.Error(), Retryable: true})
	case errors.Is(err, domain.ErrLotNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: domain.ErrLotNotFound.Error()})
	case errors.Is(err, domain.ErrBidNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: domain.ErrBidNotFound.Error()})
	case errors.Is(err, domain.ErrAuctionClosed):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: domain.ErrAuctionClosed.Error()})
	case errors.Is(err, domain.ErrBidTooLow):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: domain.ErrBidTooLow.Error()})
	case errors.Is(err, domain.ErrInvalidBid), errors.Is(err, domain.ErrInvalidLot):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: domain.ErrInternal.Error()})
}
