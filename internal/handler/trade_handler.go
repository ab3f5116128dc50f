package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"cardmarket/internal/middleware"
	"cardmarket/internal/model"
	"cardmarket/internal/monitor"
	"cardmarket/internal/service/trade"
	"cardmarket/pkg/utils"
)

// TradeHandler trade lifecycle and collaboration handler
type TradeHandler struct {
	tradeService trade.TradeService
	metrics      *monitor.MetricsCollector
}

// NewTradeHandler creates a trade handler
func NewTradeHandler(tradeService trade.TradeService, metrics *monitor.MetricsCollector) *TradeHandler {
	return &TradeHandler{tradeService: tradeService, metrics: metrics}
}

func (h *TradeHandler) record(transition string, err error) {
	if h.metrics != nil {
		h.metrics.RecordTradeTransition(transition, err == nil)
	}
}

type createTradeRequest struct {
	ProductID uint64  `json:"product_id" binding:"required"`
	Note      *string `json:"note"`
}

// Create opens a trade
func (h *TradeHandler) Create(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	var req createTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	t, err := h.tradeService.Create(c.Request.Context(), userID, req.ProductID, req.Note)
	h.record("create", err)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, t)
}

type offerRequest struct {
	ProductID uint64  `json:"product_id" binding:"required"`
	Note      *string `json:"note"`
}

// Offer responds to an open trade
func (h *TradeHandler) Offer(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tradeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	t, err := h.tradeService.Offer(c.Request.Context(), tradeID, userID, req.ProductID, req.Note)
	h.record("offer", err)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, t)
}

// Accept resolves a pending trade in the responder's favor
func (h *TradeHandler) Accept(c *gin.Context) {
	h.transition(c, "accept", h.tradeService.Accept)
}

// Decline resolves a pending trade against the responder
func (h *TradeHandler) Decline(c *gin.Context) {
	h.transition(c, "decline", h.tradeService.Decline)
}

// Cancel withdraws an unresolved trade
func (h *TradeHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", h.tradeService.Cancel)
}

// transition shared accept/decline/cancel plumbing
func (h *TradeHandler) transition(c *gin.Context, name string, fn func(ctx context.Context, tradeID, userID uint64) (*model.Trade, error)) {
	userID := middleware.MustGetUserID(c)
	tradeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	t, err := fn(c.Request.Context(), tradeID, userID)
	h.record(name, err)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, t)
}

// Get gets one trade with its collaboration history
func (h *TradeHandler) Get(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tradeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.tradeService.Get(c.Request.Context(), tradeID, userID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, detail)
}

// ListMine lists trades the user participates in
func (h *TradeHandler) ListMine(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	trades, err := h.tradeService.ListMine(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, trades)
}

// ListBrowse lists open trades from other users
func (h *TradeHandler) ListBrowse(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	trades, err := h.tradeService.ListBrowse(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, trades)
}

// ListAll lists every trade (admin)
func (h *TradeHandler) ListAll(c *gin.Context) {
	trades, err := h.tradeService.ListAll(c.Request.Context())
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, trades)
}

type postMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// PostMessage appends a chat message to an accepted trade
func (h *TradeHandler) PostMessage(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tradeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	message, err := h.tradeService.PostMessage(c.Request.Context(), tradeID, userID, req.Message)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, message)
}

type proposeMeetingRequest struct {
	When string `json:"when" binding:"required"`
}

// ProposeMeeting suggests a meeting time on an accepted trade
func (h *TradeHandler) ProposeMeeting(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tradeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req proposeMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	proposal, err := h.tradeService.ProposeMeeting(c.Request.Context(), tradeID, userID, req.When)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, proposal)
}

type respondMeetingRequest struct {
	Accept bool `json:"accept"`
}

// RespondMeeting accepts or declines a pending meeting proposal
func (h *TradeHandler) RespondMeeting(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tradeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	proposalID, ok := parseID(c, "proposal_id")
	if !ok {
		return
	}
	var req respondMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body")
		return
	}

	proposal, err := h.tradeService.RespondMeeting(c.Request.Context(), tradeID, proposalID, userID, req.Accept)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, proposal)
}
