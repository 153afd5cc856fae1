package api

import (
	"context"
	"net/http"
	"time"

	"stock-radar/internal/market"
	"stock-radar/internal/registry"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
)

func RegisterRoutes(h *server.Hertz, resolver *market.Resolver, reg *registry.Registry) {
	h.Use(corsMiddleware())

	h.GET("/health", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]any{
			"status":           "online",
			"instrument_count": reg.Len(),
		})
	})

	h.GET("/api/v1/quotes", func(ctx context.Context, c *app.RequestContext) {
		dateStr := string(c.Query("date"))
		if dateStr == "" {
			c.JSON(http.StatusOK, resolver.ResolveLive(ctx))
			return
		}
		target, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "invalid date, expected YYYY-MM-DD",
			})
			return
		}
		c.JSON(http.StatusOK, resolver.ResolveHistorical(ctx, target))
	})
}

func corsMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		if string(c.Method()) == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next(ctx)
	}
}
