package dropbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunvalleybronze/dropmirror/internal/catalog"
	"github.com/sunvalleybronze/dropmirror/internal/dropbox"
	"github.com/sunvalleybronze/dropmirror/internal/links"
	"github.com/sunvalleybronze/dropmirror/internal/server/handlers/api"
)

type Catalog interface {
	ListFiles(ctx context.Context, folder string) ([]*catalog.Entry, error)
	RecentUpdates(ctx context.Context, folder string, count int) ([]*catalog.Entry, error)
}

type FileLinks interface {
	Get(ctx context.Context, filePath string) (*links.FileLink, error)
}

type DropboxHandler struct {
	catalog Catalog
	links   FileLinks
}

func New(catalog Catalog, links FileLinks) *DropboxHandler {
	return &DropboxHandler{catalog: catalog, links: links}
}

func (h *DropboxHandler) List(ctx *gin.Context) {
	var req FolderRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	entries, err := h.catalog.ListFiles(ctx.Request.Context(), req.folder())
	if err != nil {
		abortWithListError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, entries)
}

func (h *DropboxHandler) RecentUpdates(ctx *gin.Context) {
	var req FolderRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	entries, err := h.catalog.RecentUpdates(ctx.Request.Context(), req.folder(), req.Count)
	if err != nil {
		abortWithListError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, entries)
}

func (h *DropboxHandler) GetFileLink(ctx *gin.Context) {
	var req FileRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	link, err := h.links.Get(ctx.Request.Context(), req.file())
	if errors.Is(err, links.ErrPathRequired) {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	} else if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeLinkFailed, fmt.Errorf("file link: %w", err))
		return
	}

	ctx.PureJSON(http.StatusOK, link)
}

func abortWithListError(ctx *gin.Context, err error) {
	if errors.Is(err, dropbox.ErrNotFound) {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeDropboxNotFound, err)
		return
	}
	api.AbortWithError(ctx, http.StatusBadGateway, api.CodeDropboxListFailed, err)
}
