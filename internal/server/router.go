// Package server assembles the HTTP surface of the catalog.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"microteca/internal/auth"
	"microteca/internal/catalog"
	"microteca/internal/csvcodec"
	"microteca/internal/metrics"
	synchub "microteca/internal/sync"
)

type Deps struct {
	Store     *catalog.Store
	Hub       *synchub.Hub
	Auth      *auth.LocalProvider
	Metrics   *metrics.Metrics
	CSVFormat csvcodec.Format
	CSVLimits csvcodec.Options
	Log       *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Hub == nil {
		d.Hub = synchub.NewHub(d.Log)
	}

	router := gin.New()
	router.Use(RequestLogger(d.Log), Recovery(d.Log))

	// avoid "trusted all proxies" warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", synchub.WSHandler(d.Hub))
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"records":    d.Store.Len(),
			"ws_clients": d.Hub.Stats().WSClients,
		})
	})

	// Catalog (public)
	catalogHandler := catalog.NewHandler(d.Store, d.Hub, d.Metrics, d.Log.Named("catalog"))
	if d.CSVFormat != "" {
		catalogHandler.CSVFormat = d.CSVFormat
	}
	catalogHandler.CSVLimits = d.CSVLimits
	catalogHandler.RegisterPublicRoutes(router.Group("/microorganisms"))

	// Auth
	authHandler := auth.NewHandler(d.Auth, d.Log.Named("auth"))
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Admin console (protected)
	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(d.Auth.Tokens, d.Auth))
	catalogHandler.RegisterAdminRoutes(admin)

	return router
}
