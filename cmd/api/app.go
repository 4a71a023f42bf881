package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/nfe-distribuicao/docs"
	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/controller"
	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/route"
	"github.com/hugohenrick/nfe-distribuicao/internal/app"
	"github.com/hugohenrick/nfe-distribuicao/internal/config"
	"github.com/hugohenrick/nfe-distribuicao/pkg/auth"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

// Server representa a API e suas dependências
type Server struct {
	router *gin.Engine
	app    *app.App
}

// NewServer cria o serviço de distribuição e monta as rotas da API
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	distributionApp, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Server.JWTSecret, time.Duration(cfg.Server.JWTExpirationHours)*time.Hour)
	if err != nil {
		distributionApp.Close()
		return nil, err
	}

	docs.SwaggerInfo.BasePath = route.BasePath

	router := route.NewRouter(route.RouterConfig{
		AuthController: controller.NewAuthController(controller.Credentials{
			Username:     cfg.Server.APIUser,
			PasswordHash: cfg.Server.APIPasswordHash,
			Party:        string(distributionApp.Party()),
		}, jwtService, log),
		DistributionController: controller.NewDistributionController(distributionApp, log),
		JWTService:             jwtService,
		CORSOrigins:            cfg.Server.CORSOrigins,
		Swagger:                true,
	})

	return &Server{router: router, app: distributionApp}, nil
}

// Router retorna o router da aplicação
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Close libera os recursos da aplicação
func (s *Server) Close() {
	s.app.Close()
}
