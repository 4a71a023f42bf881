package route

import (
	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/controller"
)

// SetupDistributionRoutes configura as rotas de consulta ao serviço de distribuição
func SetupDistributionRoutes(router *gin.RouterGroup, distributionController *controller.DistributionController, authMiddleware gin.HandlerFunc) {
	dfeRouter := router.Group("/dfe")
	dfeRouter.Use(authMiddleware)
	{
		dfeRouter.GET("/chaves/:chave", distributionController.GetByKey)
		dfeRouter.POST("/chaves", distributionController.FetchKeys)
		dfeRouter.POST("/nsu/consultar", distributionController.Scan)
		dfeRouter.GET("/nsu", distributionController.GetCursor)
		dfeRouter.GET("/execucoes", distributionController.ListRuns)
		dfeRouter.GET("/documentos/:chave", distributionController.ListStored)
	}
}
