package handlers

import (
	"errors"
	"net/http"

	"marketplace-auction/internal/domain"
	"marketplace-auction/internal/services"
	"marketplace-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	userIDHeader      = "X-User-ID"
	accessTokenHeader = "X-Access-Token"
)

type AuctionHandler struct {
	service *services.AuctionService
	log     logger.Logger
}

func NewAuctionHandler(service *services.AuctionService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		service: service,
		log:     log,
	}
}

func (h *AuctionHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/auctions/:post_token", h.AuctionIntro)
	api.GET("/auctions/:post_token/bidding", h.BidderView)
	api.GET("/auctions/:post_token/management", h.SellerView)
	api.POST("/auctions", h.StartAuction)
	api.DELETE("/auctions/:post_token", h.RemoveAuction)
	api.POST("/auctions/:post_token/bids", h.PlaceBid)
	api.DELETE("/auctions/:post_token/bids", h.RemoveBid)
	api.POST("/bids/:bid_id/select", h.SelectBid)
}

type StartAuctionRequest struct {
	PostToken     string `json:"post_token"`
	StartingPrice int64  `json:"starting_price"`
}

type PlaceBidRequest struct {
	Amount int64 `json:"amount"`
}

type AuctionResponse struct {
	AuctionID      string        `json:"auction_id"`
	PostToken      string        `json:"post_token"`
	PostTitle      string        `json:"post_title"`
	StartingPrice  int64         `json:"starting_price"`
	MinRaiseAmount int64         `json:"min_raise_amount"`
	BidsCount      int           `json:"bids_count"`
	State          string        `json:"state"`
	SelectedBid    string        `json:"selected_bid,omitempty"`
	Bids           []BidResponse `json:"bids,omitempty"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    int64  `json:"amount"`
}

func auctionResponse(auction *domain.Auction, withBids bool) AuctionResponse {
	rsp := AuctionResponse{
		AuctionID:      auction.UID,
		PostToken:      auction.PostToken,
		PostTitle:      auction.PostTitle,
		StartingPrice:  auction.StartingPrice,
		MinRaiseAmount: auction.MinRaiseAmount(),
		BidsCount:      auction.BidsCount,
		State:          auction.State().String(),
		SelectedBid:    auction.SelectedBid,
	}
	if withBids {
		for _, bid := range auction.Bids {
			rsp.Bids = append(rsp.Bids, bidResponse(bid))
		}
	}
	return rsp
}

func bidResponse(bid *domain.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.UID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
	}
}

func (h *AuctionHandler) AuctionIntro(c echo.Context) error {
	postToken := c.Param("post_token")

	auction, err := h.service.AuctionIntro(c.Request().Context(), postToken)
	if err != nil {
		return h.domainError(c, err)
	}
	if auction == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"post_token": postToken,
			"auction":    nil,
		})
	}
	return c.JSON(http.StatusOK, auctionResponse(auction, false))
}

func (h *AuctionHandler) BidderView(c echo.Context) error {
	userID, err := h.requireUser(c)
	if err != nil {
		return err
	}

	view, err := h.service.BidderView(c.Request().Context(), userID, c.Param("post_token"))
	if err != nil {
		return h.domainError(c, err)
	}

	topBids := make([]BidResponse, 0, len(view.TopBids))
	for _, bid := range view.TopBids {
		topBids = append(topBids, bidResponse(bid))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"auction_id":       view.AuctionID,
		"post_token":       view.PostToken,
		"post_title":       view.PostTitle,
		"starting_price":   view.StartingPrice,
		"bids_count":       view.BidsCount,
		"last_bid":         view.LastBid,
		"min_raise_amount": view.MinRaiseAmount,
		"top_bids":         topBids,
	})
}

func (h *AuctionHandler) SellerView(c echo.Context) error {
	userID, err := h.requireUser(c)
	if err != nil {
		return err
	}

	auction, err := h.service.SellerView(c.Request().Context(), userID, c.Param("post_token"))
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusOK, auctionResponse(auction, true))
}

func (h *AuctionHandler) StartAuction(c echo.Context) error {
	userID, err := h.requireUser(c)
	if err != nil {
		return err
	}

	var req StartAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.PostToken == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "post_token is required"})
	}
	if req.StartingPrice < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "starting_price must not be negative"})
	}

	auction, err := h.service.StartAuction(c.Request().Context(), userID,
		c.Request().Header.Get(accessTokenHeader), req.PostToken, req.StartingPrice)
	if err != nil {
		return h.domainError(c, err)
	}

	return c.JSON(http.StatusCreated, auctionResponse(auction, false))
}

func (h *AuctionHandler) RemoveAuction(c echo.Context) error {
	userID, err := h.requireUser(c)
	if err != nil {
		return err
	}

	auction, err := h.service.RemoveAuction(c.Request().Context(), userID, c.Param("post_token"))
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusOK, auctionResponse(auction, false))
}

func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	userID, err := h.requireUser(c)
	if err != nil {
		return err
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Amount < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "amount must not be negative"})
	}

	bid, err := h.service.PlaceBid(c.Request().Context(), userID, c.Param("post_token"), req.Amount)
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusCreated, bidResponse(bid))
}

func (h *AuctionHandler) RemoveBid(c echo.Context) error {
	userID, err := h.requireUser(c)
	if err != nil {
		return err
	}

	if err := h.service.RemoveBid(c.Request().Context(), userID, c.Param("post_token")); err != nil {
		return h.domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuctionHandler) SelectBid(c echo.Context) error {
	userID, err := h.requireUser(c)
	if err != nil {
		return err
	}

	auction, err := h.service.SelectBid(c.Request().Context(), userID,
		c.Request().Header.Get(accessTokenHeader), c.Param("bid_id"))
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusOK, auctionResponse(auction, false))
}

func (h *AuctionHandler) requireUser(c echo.Context) (string, error) {
	userID := c.Request().Header.Get(userIDHeader)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "user identity required")
	}
	return userID, nil
}

// domainError translates the domain taxonomy into HTTP statuses. Domain
// messages are user-facing and returned as-is.
func (h *AuctionHandler) domainError(c echo.Context, err error) error {
	var status int
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound),
		errors.Is(err, domain.ErrBidNotFound),
		errors.Is(err, domain.ErrPostNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAuctionAlreadyStarted),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrInvalidBidAmount),
		errors.Is(err, domain.ErrBidFromSellerNotAllowed):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAuctionRemoveFailure):
		status = http.StatusBadGateway
	default:
		h.log.Error("Unhandled service error", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
