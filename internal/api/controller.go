package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tiny-dp-go/internal/engine"
	"tiny-dp-go/internal/model"
	"tiny-dp-go/internal/report"
	"tiny-dp-go/internal/runner"
	"tiny-dp-go/internal/storage"
)

type Controller interface {
	RegisterPublic(*gin.RouterGroup)
}

// EvaluationServer handles HTTP requests for evaluations and stored runs.
type EvaluationServer struct {
	store    storage.Store
	defaults runner.Settings
	logger   *slog.Logger
}

func NewEvaluationServer(store storage.Store, defaults runner.Settings, logger *slog.Logger) *EvaluationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationServer{
		store:    store,
		defaults: defaults,
		logger:   logger,
	}
}

// RegisterPublic registers public routes.
func (c *EvaluationServer) RegisterPublic(route *gin.RouterGroup) {
	route.POST("/evaluations", c.evaluate)

	runs := route.Group("/runs")
	{
		runs.GET("", c.listRuns)
		runs.GET("/:id", c.getRun)
		runs.GET("/:id/chart", c.chart)
		runs.DELETE("/:id", c.deleteRun)
	}
}

// evaluate runs one evaluation synchronously and stores it. A run stopped by
// the sweep cap is stored too and comes back with 422.
func (c *EvaluationServer) evaluate(ctx *gin.Context) {
	var request runner.Request
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := request.Apply(c.defaults)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := runner.Evaluate(ctx.Request.Context(), settings, c.store, c.logger)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotConverged):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "run": run})
		case errors.Is(err, context.Canceled):
			ctx.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	ctx.JSON(http.StatusCreated, run)
}

func (c *EvaluationServer) listRuns(ctx *gin.Context) {
	runs, err := c.store.ListRuns(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (c *EvaluationServer) getRun(ctx *gin.Context) {
	run, ok := c.lookup(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, run)
}

// chart serves the value heatmap and delta curve of a stored run as HTML.
func (c *EvaluationServer) chart(ctx *gin.Context) {
	run, ok := c.lookup(ctx)
	if !ok {
		return
	}
	var page bytes.Buffer
	if err := report.WriteChart(&page, run.Settings.Layout+" "+run.ID, run.Values, run.Deltas); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

func (c *EvaluationServer) deleteRun(ctx *gin.Context) {
	if _, ok := c.lookup(ctx); !ok {
		return
	}
	if err := c.store.DeleteRun(ctx.Request.Context(), ctx.Param("id")); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// lookup writes the error response itself when the run cannot be returned.
func (c *EvaluationServer) lookup(ctx *gin.Context) (model.Run, bool) {
	id := ctx.Param("id")
	run, ok, err := c.store.GetRun(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return model.Run{}, false
	}
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "run not found: " + id})
		return model.Run{}, false
	}
	return run, true
}
