package restapi

import (
	"net/http"
	"time"

	"vault_client/internal/app/port"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
// gatherer may be nil, then /metrics is not registered.
func SetupRouter(vaultHandler *VaultHandler, strategyHandler *StrategyHandler, gatherer prometheus.Gatherer, l port.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(requestLogger(l))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Группа для API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/chains", vaultHandler.GetChainsHandler)
		v1.GET("/chains/:chainId/vaults/:vaultAddress", vaultHandler.GetVaultHandler)
		v1.GET("/chains/:chainId/users/:userAddress/vaults", vaultHandler.GetUserVaultsHandler)

		v1.GET("/strategies", strategyHandler.ListStrategiesHandler)
		v1.GET("/strategies/:strategyId", strategyHandler.GetStrategyHandler)
		v1.GET("/strategies/:strategyId/templates/:templateId", strategyHandler.GetTemplateDefaultsHandler)
		v1.POST("/strategies/:strategyId/validate", strategyHandler.ValidateParamsHandler)
	}

	return router
}

// requestLogger logs every request once it has been served.
func requestLogger(l port.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}
		if status >= http.StatusInternalServerError {
			l.Error("HTTP request failed", args...)
			return
		}
		l.Debug("HTTP request served", args...)
	}
}

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
}

func abortWithError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}
