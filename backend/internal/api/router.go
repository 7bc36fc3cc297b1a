package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neo4j-connector/backend/internal/connector"
	apperrors "neo4j-connector/backend/pkg/errors"
)

// Store is the connector contract the HTTP surface drives.
type Store interface {
	Ping(ctx context.Context) (bool, error)
	Create(ctx context.Context, model string, data connector.Record) (any, error)
	All(ctx context.Context, model string, filter connector.Filter) ([]connector.Record, error)
	FindByID(ctx context.Context, model string, id any) (connector.Record, error)
	Count(ctx context.Context, model string, where connector.Record) (int64, error)
	Destroy(ctx context.Context, model string, id any) (int64, error)
	DestroyAll(ctx context.Context, model string, where connector.Record) error
	ReplaceByID(ctx context.Context, model string, id any, data connector.Record) (connector.Record, error)
	UpdateAttributes(ctx context.Context, model string, id any, data connector.Record) (connector.Record, error)
	Update(ctx context.Context, model string, where, data connector.Record) (int64, error)
	UpdateOrCreate(ctx context.Context, model string, data connector.Record) (connector.Record, error)
	FindOrCreate(ctx context.Context, model string, filter connector.Filter, data connector.Record) (connector.Record, bool, error)
}

type handler struct {
	store Store
	log   *zap.Logger
}

// NewRouter wires the REST routes for store onto a fresh gin engine.
func NewRouter(store Store, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(Logger(log))
	router.Use(gin.Recovery())

	h := &handler{store: store, log: log}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ping", h.ping)

	api := router.Group("/api")
	{
		api.POST("/:model", h.create)
		api.GET("/:model", h.all)
		api.GET("/:model/count", h.count)
		api.POST("/:model/findOrCreate", h.findOrCreate)
		api.PUT("/:model", h.upsert)
		api.PATCH("/:model", h.update)
		api.DELETE("/:model", h.destroyAll)

		api.GET("/:model/:id", h.findByID)
		api.PUT("/:model/:id", h.replaceByID)
		api.PATCH("/:model/:id", h.updateAttributes)
		api.DELETE("/:model/:id", h.destroy)
	}

	return router
}

func (h *handler) ping(c *gin.Context) {
	if _, err := h.store.Ping(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) create(c *gin.Context) {
	data, ok := h.bindRecord(c)
	if !ok {
		return
	}
	id, err := h.store.Create(c.Request.Context(), c.Param("model"), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *handler) all(c *gin.Context) {
	var filter connector.Filter
	if raw := c.Query("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter: " + err.Error()})
			return
		}
	}
	records, err := h.store.All(c.Request.Context(), c.Param("model"), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *handler) count(c *gin.Context) {
	where, ok := h.whereQuery(c)
	if !ok {
		return
	}
	n, err := h.store.Count(c.Request.Context(), c.Param("model"), where)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *handler) findByID(c *gin.Context) {
	rec, err := h.store.FindByID(c.Request.Context(), c.Param("model"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) replaceByID(c *gin.Context) {
	data, ok := h.bindRecord(c)
	if !ok {
		return
	}
	rec, err := h.store.ReplaceByID(c.Request.Context(), c.Param("model"), c.Param("id"), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) updateAttributes(c *gin.Context) {
	data, ok := h.bindRecord(c)
	if !ok {
		return
	}
	rec, err := h.store.UpdateAttributes(c.Request.Context(), c.Param("model"), c.Param("id"), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) destroy(c *gin.Context) {
	n, err := h.store.Destroy(c.Request.Context(), c.Param("model"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *handler) destroyAll(c *gin.Context) {
	where, ok := h.whereQuery(c)
	if !ok {
		return
	}
	if err := h.store.DestroyAll(c.Request.Context(), c.Param("model"), where); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) update(c *gin.Context) {
	where, ok := h.whereQuery(c)
	if !ok {
		return
	}
	data, ok := h.bindRecord(c)
	if !ok {
		return
	}
	n, err := h.store.Update(c.Request.Context(), c.Param("model"), where, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *handler) upsert(c *gin.Context) {
	data, ok := h.bindRecord(c)
	if !ok {
		return
	}
	rec, err := h.store.UpdateOrCreate(c.Request.Context(), c.Param("model"), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) findOrCreate(c *gin.Context) {
	var req struct {
		Filter connector.Filter `json:"filter"`
		Data   connector.Record `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, created, err := h.store.FindOrCreate(c.Request.Context(), c.Param("model"), req.Filter, req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"record": rec, "created": created})
}

func (h *handler) bindRecord(c *gin.Context) (connector.Record, bool) {
	var data connector.Record
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return data, true
}

func (h *handler) whereQuery(c *gin.Context) (connector.Record, bool) {
	raw := c.Query("where")
	if raw == "" {
		return nil, true
	}
	var where connector.Record
	if err := json.Unmarshal([]byte(raw), &where); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid where: " + err.Error()})
		return nil, false
	}
	return where, true
}

func (h *handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  apperrors.TypeOf(err),
	})
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeNotImplemented:
		return http.StatusNotImplemented
	case apperrors.ErrorTypeConnection:
		return http.StatusServiceUnavailable
	case apperrors.ErrorTypeContext:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Logger is request logging middleware for gin.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
