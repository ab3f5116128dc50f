package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cardmarket/internal/middleware"
	"cardmarket/internal/monitor"
	"cardmarket/internal/realtime"
	"cardmarket/internal/repository"
	"cardmarket/pkg/log"
)

const joinDeadline = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front; the token is the gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler websocket handler
type WSHandler struct {
	hub       *realtime.Hub
	tradeRepo repository.TradeRepository
	validator middleware.TokenValidator
	metrics   *monitor.MetricsCollector
}

// NewWSHandler creates a websocket handler
func NewWSHandler(hub *realtime.Hub, tradeRepo repository.TradeRepository, validator middleware.TokenValidator, metrics *monitor.MetricsCollector) *WSHandler {
	return &WSHandler{
		hub:       hub,
		tradeRepo: tradeRepo,
		validator: validator,
		metrics:   metrics,
	}
}

// Serve upgrades the connection and subscribes it. Browsers cannot set the
// Authorization header on websocket requests, so the token rides in the query
// string. The first frame is the join request naming the trades to follow.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	info, err := h.validator(token)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(joinDeadline))
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	join, err := realtime.ParseJoin(data)
	if err != nil {
		conn.Close()
		return
	}

	topics := []string{
		realtime.UserTopic(info.ID),
		realtime.TopicGlobal,
	}
	for _, tradeID := range join.TradeIDs {
		trade, err := h.tradeRepo.GetByID(c.Request.Context(), tradeID)
		if err != nil || !trade.IsParticipant(info.ID) {
			continue
		}
		topics = append(topics, realtime.TradeTopic(tradeID))
	}

	h.hub.Register(conn, topics)
	if h.metrics != nil {
		h.metrics.SetRealtimeClients(h.hub.ClientCount())
	}
}
