package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sunvalleybronze/dropmirror/internal/server/handlers/api"
	"github.com/sunvalleybronze/dropmirror/internal/server/handlers/dropbox"
	"github.com/sunvalleybronze/dropmirror/internal/server/handlers/runs"
	"github.com/sunvalleybronze/dropmirror/internal/server/handlers/syncer"
	"github.com/sunvalleybronze/dropmirror/internal/server/middlewares"
	"github.com/sunvalleybronze/dropmirror/internal/version"
)

type Handlers struct {
	Dropbox *dropbox.DropboxHandler
	Sync    *syncer.SyncHandler
	Runs    *runs.RunsHandler
}

func NewHandlers(svc *Services) *Handlers {
	var hist runs.History
	if svc.History != nil {
		hist = svc.History
	}
	return &Handlers{
		Dropbox: dropbox.New(svc.Catalog, svc.Links),
		Sync:    syncer.New(svc.Engine, svc.Sitemap),
		Runs:    runs.New(hist),
	}
}

func SetupRoutes(config *HTTPConfig, h *Handlers) http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(middlewares.GZIP())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Secure(config.TLS()))

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)
	r.GET("/ping", PingHandler)

	syncRate := config.SyncRate
	if syncRate == "" {
		syncRate = DefaultSyncRate
	}

	dbx := r.Group("/dropbox")
	{
		dbx.GET("/list", h.Dropbox.List)
		dbx.GET("/recentUpdates", h.Dropbox.RecentUpdates)
		dbx.GET("/getFileLink", h.Dropbox.GetFileLink)

		limited := middlewares.RateLimiter(syncRate)
		dbx.GET("/synchronizeDropboxToS3", limited, h.Sync.Synchronize)
		dbx.POST("/synchronizeDropboxToS3", limited, h.Sync.Synchronize)
	}

	r.GET("/sync/status", h.Sync.Status)
	r.POST("/sitemap/update", middlewares.RateLimiter(syncRate), h.Sync.UpdateSitemap)

	r.GET("/runs", h.Runs.List)
	r.GET("/runs/:id", h.Runs.Get)

	r.NoRoute(func(c *gin.Context) {
		c.PureJSON(http.StatusNotFound, api.APIError{
			Code:    api.CodeNotFound,
			Message: "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.PureJSON(http.StatusMethodNotAllowed, api.APIError{
			Code:    api.CodeInvalidRequest,
			Message: "method not allowed",
		})
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func PingHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
