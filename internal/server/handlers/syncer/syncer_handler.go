package syncer

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/server/handlers/api"
	"github.com/sunvalleybronze/dropmirror/internal/sitemap"
)

type Engine interface {
	Run(ctx context.Context) (*mirror.Report, error)
	State() mirror.State
	LastReport() *mirror.Report
}

type SitemapUpdater interface {
	Update(ctx context.Context) (*sitemap.Result, error)
}

type SyncResponse struct {
	Message string         `json:"message"`
	Report  *mirror.Report `json:"report"`
}

type StatusResponse struct {
	State      string         `json:"state"`
	LastReport *mirror.Report `json:"lastReport,omitempty"`
}

type SyncHandler struct {
	engine  Engine
	sitemap SitemapUpdater
}

func New(engine Engine, sitemap SitemapUpdater) *SyncHandler {
	return &SyncHandler{engine: engine, sitemap: sitemap}
}

// Synchronize runs a sync pass inline and returns its report. The run keeps
// going when the client disconnects.
func (h *SyncHandler) Synchronize(ctx *gin.Context) {
	report, err := h.engine.Run(context.WithoutCancel(ctx.Request.Context()))
	if errors.Is(err, mirror.ErrRunInProgress) || errors.Is(err, mirror.ErrLockHeld) {
		api.AbortWithError(ctx, http.StatusConflict, api.CodeSyncInProgress, err)
		return
	} else if err != nil {
		api.AbortWithError(ctx, http.StatusBadGateway, api.CodeSyncFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &SyncResponse{
		Message: report.Summary(),
		Report:  report,
	})
}

func (h *SyncHandler) Status(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, &StatusResponse{
		State:      h.engine.State().String(),
		LastReport: h.engine.LastReport(),
	})
}

func (h *SyncHandler) UpdateSitemap(ctx *gin.Context) {
	res, err := h.sitemap.Update(ctx.Request.Context())
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadGateway, api.CodeSitemapFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, res)
}
