package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/api/dto"
	"github.com/olyamironova/order-execution-engine/internal/dispatch"
	"github.com/olyamironova/order-execution-engine/internal/domain"
	"github.com/olyamironova/order-execution-engine/internal/metrics"
	"github.com/olyamironova/order-execution-engine/internal/middleware"
	"github.com/olyamironova/order-execution-engine/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type HTTPServer struct {
	dispatcher *dispatch.Dispatcher
	registry   *notify.Registry
	log        *zap.Logger

	submitInterval time.Duration
}

func NewHTTPServer(dispatcher *dispatch.Dispatcher, registry *notify.Registry, submitInterval time.Duration, log *zap.Logger) *HTTPServer {
	return &HTTPServer{
		dispatcher:     dispatcher,
		registry:       registry,
		log:            log,
		submitInterval: submitInterval,
	}
}

// Router builds the gin engine with all routes registered.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.Default()

	rl := middleware.NewRateLimiter(s.submitInterval)

	r.GET("/", s.banner)
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/api/orders/execute", rl.Middleware(), s.createOrder)
	r.GET("/api/orders/ws/:orderId", s.streamOrder)

	return r
}

func (s *HTTPServer) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *HTTPServer) banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online", "service": "Order Execution Engine"})
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) createOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := ValidateOrder(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	o := &domain.Order{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Side:        req.Side,
		InputToken:  req.InputToken,
		OutputToken: req.OutputToken,
		Amount:      req.Amount,
		CreatedAt:   time.Now(),
	}

	if err := s.dispatcher.Enqueue(c.Request.Context(), o); err != nil {
		s.log.Error("enqueue failed", zap.String("order_id", o.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	metrics.OrdersSubmitted.Inc()
	s.log.Info("order received", zap.String("order_id", o.ID))

	c.JSON(http.StatusOK, dto.CreateOrderResponse{
		Message: "Order received",
		OrderID: o.ID,
		Status:  domain.StatusPending,
		WsURL:   "ws://" + c.Request.Host + "/api/orders/ws/" + o.ID,
	})
}

func (s *HTTPServer) streamOrder(c *gin.Context) {
	orderID := c.Param("orderId")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newWSConn(conn)
	s.log.Info("client attached", zap.String("order_id", orderID))

	// Initial status goes out before Attach so it precedes any replayed
	// pipeline events.
	if err := client.Send(domain.StatusEvent{
		OrderID: orderID,
		Status:  domain.StatusPending,
		Message: "Connected to updates",
	}); err != nil {
		s.log.Warn("initial send failed", zap.String("order_id", orderID), zap.Error(err))
		client.close()
		return
	}
	s.registry.Attach(orderID, client)

	go s.readLoop(orderID, client)
}

// readLoop drains the connection to detect the client closing; the registry
// entry is removed as soon as the read fails.
func (s *HTTPServer) readLoop(orderID string, client *wsConn) {
	defer func() {
		client.close()
		s.registry.Detach(orderID)
		s.log.Info("client detached", zap.String("order_id", orderID))
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ValidateOrder rejects submissions the pipeline would not know how to run.
func ValidateOrder(req *dto.CreateOrderRequest) error {
	switch req.Side {
	case domain.Buy, domain.Sell:
	default:
		return fmt.Errorf("invalid side: %s", req.Side)
	}
	switch req.Type {
	case domain.Market, domain.Limit, domain.Sniper:
	default:
		return fmt.Errorf("invalid order type: %s", req.Type)
	}
	if !req.Amount.IsPositive() {
		return errors.New("invalid amount")
	}
	return nil
}
