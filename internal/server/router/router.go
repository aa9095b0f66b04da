package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/server/handlers"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pantry_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// New wires the Gin engine with required routes and middlewares. webhook may be nil when
// messaging is disabled.
func New(inventory *handlers.InventoryHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware())

	api := r.Group("/api")
	{
		api.GET("/items", inventory.ListItems)
		api.POST("/items", inventory.AddItem)
		api.GET("/items/:name", inventory.GetItem)
		api.PUT("/items/:name", inventory.SetItem)
		api.POST("/items/:name/increment", inventory.Increment)
		api.POST("/items/:name/decrement", inventory.Decrement)
		api.GET("/summary", inventory.Summary)

		view := api.Group("/view")
		view.GET("", inventory.GetView)
		view.POST("/form/open", inventory.OpenForm)
		view.POST("/form/close", inventory.CloseForm)
		view.PUT("/form", inventory.SetFormInput)
		view.POST("/form/submit", inventory.SubmitForm)
		view.POST("/details/:name", inventory.SelectDetails)
		view.DELETE("/details", inventory.ClearDetails)
		view.PUT("/query", inventory.SetQuery)
		view.DELETE("/query", inventory.ClearQuery)
		view.POST("/removal/confirm", inventory.ConfirmRemoval)
		view.POST("/removal/:name", inventory.RequestRemoval)
		view.DELETE("/removal", inventory.CancelRemoval)
		view.DELETE("/notification", inventory.DismissNotification)
	}

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
		r.POST("/send-message", webhook.SendMessage)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("router initialized", zap.Bool("webhook", webhook != nil))

	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
