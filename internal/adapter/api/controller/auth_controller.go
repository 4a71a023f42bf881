package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/dto"
	"github.com/hugohenrick/nfe-distribuicao/pkg/auth"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

// Credentials é o usuário único da API, com a senha em hash bcrypt
type Credentials struct {
	Username     string
	PasswordHash string
	Party        string
}

// AuthController gerencia as requisições relacionadas à autenticação
type AuthController struct {
	credentials Credentials
	jwtService  *auth.JWTService
	logger      logger.Logger
}

// NewAuthController cria uma nova instância de AuthController
func NewAuthController(credentials Credentials, jwtService *auth.JWTService, log logger.Logger) *AuthController {
	return &AuthController{
		credentials: credentials,
		jwtService:  jwtService,
		logger:      log,
	}
}

// Login autentica o operador e retorna um token JWT
// @Summary Autentica o operador da API
// @Description Verifica as credenciais configuradas e retorna um token JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Credenciais de login"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var request dto.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	if request.Username != c.credentials.Username || !auth.CheckPassword(c.credentials.PasswordHash, request.Password) {
		c.logger.Warn("Tentativa de login recusada", "username", request.Username, "ip", ctx.ClientIP())
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Credenciais inválidas", "Usuário ou senha incorretos"))
		return
	}

	token, expiresAt, err := c.jwtService.GenerateToken(request.Username, c.credentials.Party)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao gerar token", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}
