package http

import (
	"time"

	"taskboard/internal/http/handlers"
	"taskboard/internal/http/middleware"
	"taskboard/internal/service"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Board  *service.BoardService
	Audit  *service.AuditService
	Hub    *ws.Hub
	Health handlers.Pinger

	StoreDriver    string
	Version        string
	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string
}

// NewEngine returns a gin engine with the request middleware installed and
// every route registered.
func NewEngine(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Audit == nil {
		d.Audit = service.NewAuditService(nil)
	}
	h := handlers.NewHandler(d.Board, d.Audit)
	probes := []handlers.Probe{}
	if d.Health != nil {
		probes = append(probes, handlers.StoreProbe(d.Health))
	}
	if ping, ok := middleware.RedisProbe(); ok {
		probes = append(probes, handlers.Probe{Name: "redis", Ping: ping})
	}
	healthHandler := handlers.NewHealthHandler(d.StoreDriver, d.Version, probes...)

	rateLimit := d.RateLimit
	if rateLimit <= 0 {
		rateLimit = 120
	}
	rateWindow := d.RateWindow
	if rateWindow <= 0 {
		rateWindow = time.Minute
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWT(), middleware.RateLimit(rateLimit, rateWindow))
	registerAPIRoutes(v1, h)

	if d.Hub != nil {
		r.GET("/ws", ws.HandleWS(d.Hub, d.AllowedOrigins))
	}
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	// Board
	api.POST("/board/bootstrap", h.Bootstrap)
	api.GET("/board/activity", h.Activity)

	// Columns
	columns := api.Group("/columns")
	{
		columns.GET("", h.ListColumns)
		columns.POST("", h.CreateColumn)
		columns.PATCH("/reorder", h.ReorderColumns)
		columns.PUT("/:id", h.UpdateColumn)
		columns.DELETE("/:id", h.DeleteColumn)
	}

	// Tasks
	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.PATCH("/:id/move", h.MoveTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}
}
