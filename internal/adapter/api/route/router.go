package route

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/controller"
	"github.com/hugohenrick/nfe-distribuicao/pkg/auth"
)

// BasePath é o prefixo de todas as rotas da API
const BasePath = "/api/v1"

// RouterConfig reúne as dependências do router
type RouterConfig struct {
	AuthController         *controller.AuthController
	DistributionController *controller.DistributionController
	JWTService             *auth.JWTService
	// CORSOrigins é a lista de origens separadas por vírgula; "*" libera todas
	CORSOrigins string
	Swagger     bool
}

// NewRouter monta o router com middlewares globais e todas as rotas
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	api := router.Group(BasePath)
	api.GET("/health", cfg.DistributionController.Health)

	SetupAuthRoutes(api, cfg.AuthController)
	SetupDistributionRoutes(api, cfg.DistributionController, auth.JWTAuthMiddleware(cfg.JWTService))

	if cfg.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return router
}

func corsConfig(origins string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	origins = strings.TrimSpace(origins)
	if origins == "" || origins == "*" {
		config.AllowAllOrigins = true
		return config
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			config.AllowOrigins = append(config.AllowOrigins, o)
		}
	}
	return config
}
