package handlers

import (
	"time"

	_ "pulse_generator/docs"
	"pulse_generator/internal/logger"
	"pulse_generator/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger

	// default push interval for /ws when the client does not ask for one
	wsInterval time.Duration
}

// NewHandler constructs a new HTTP handler with dependencies. A nil log discards
// diagnostics.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, log: log, wsInterval: defaultInterval}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	// Browser UI and the plain-text control endpoints it calls.
	router.GET("/", h.index)
	h.registerPanelRoutes(router)

	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerPanelRoutes(r *gin.Engine) {
	r.GET("/set", h.setParams)
	r.GET("/start", h.startPulsing)
	r.GET("/stop", h.stopPulsing)
	r.GET("/log", h.readLog)
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		api.POST("/config", h.updateConfig)
		api.POST("/start", h.startAPI)
		api.POST("/stop", h.stopAPI)
		api.GET("/log", h.readLog)
		api.GET("/events", h.getEvents)
	}
}

// requestLogger logs each request at debug level; /log and /ws are polled
// constantly and would drown everything else.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	switch c.FullPath() {
	case "/log", "/api/v1/log", "/ws":
		return
	}
	h.log.Debugw("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}
