package runs

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunvalleybronze/dropmirror/internal/history"
	"github.com/sunvalleybronze/dropmirror/internal/server/handlers/api"
)

var errHistoryDisabled = errors.New("run history is disabled")

type History interface {
	List(ctx context.Context, limit int) ([]*history.Run, error)
	Get(ctx context.Context, id string) (*history.Run, error)
}

type ListRequest struct {
	Limit int `form:"limit" binding:"gte=0,lte=500"`
}

type RunsHandler struct {
	history History
}

// New returns a handler over the run history. A nil history answers every
// request with 404.
func New(history History) *RunsHandler {
	return &RunsHandler{history: history}
}

func (h *RunsHandler) List(ctx *gin.Context) {
	if h.history == nil {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeHistoryDisabled, errHistoryDisabled)
		return
	}

	var req ListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	runs, err := h.history.List(ctx.Request.Context(), req.Limit)
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.PureJSON(http.StatusOK, gin.H{
		"runs": runs,
	})
}

func (h *RunsHandler) Get(ctx *gin.Context) {
	if h.history == nil {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeHistoryDisabled, errHistoryDisabled)
		return
	}

	run, err := h.history.Get(ctx.Request.Context(), ctx.Param("id"))
	if errors.Is(err, history.ErrRunNotFound) {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeRunNotFound, err)
		return
	} else if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.PureJSON(http.StatusOK, run)
}
