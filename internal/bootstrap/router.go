package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	analyticshttp "github.com/expanders360/vendor-match-backend/internal/analytics/http"
	httpapi "github.com/expanders360/vendor-match-backend/internal/api/http"
	"github.com/expanders360/vendor-match-backend/internal/api/http/middleware"
	matchinghttp "github.com/expanders360/vendor-match-backend/internal/matching/http"
	schedhttp "github.com/expanders360/vendor-match-backend/internal/scheduler/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	App         *App
	Logger      *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.RequestID(dep.Logger))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.App.Pool)
	healthHandler.RegisterRoutes(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	projectsGroup := api.Group("/projects")
	vendorsGroup := api.Group("/vendors")
	matchinghttp.New(dep.App.Matching).Register(projectsGroup, vendorsGroup)

	analyticsGroup := api.Group("/analytics")
	analyticshttp.New(dep.App.Analytics).Register(analyticsGroup)

	jobsGroup := api.Group("/jobs")
	schedhttp.New(dep.App.Runs).Register(jobsGroup)

	return r
}
