package router

import (
	"github.com/gin-gonic/gin"

	"github.com/usdc_batchpay/handler"
)

func SetupRouter(listHandler *handler.ListHandler, csvHandler *handler.CSVHandler,
	paymentHandler *handler.PaymentHandler, contactHandler *handler.ContactHandler) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		lists := api.Group("/lists")
		{
			lists.POST("", listHandler.Create)
			lists.GET("", listHandler.Overview)
			lists.GET("/:id", listHandler.Get)
			lists.PUT("/:id", listHandler.Update)
			lists.DELETE("/:id", listHandler.Delete)
			lists.POST("/:id/import", csvHandler.Import)
			lists.GET("/:id/export", csvHandler.Export)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/preview", paymentHandler.Preview)
			payments.POST("/send", paymentHandler.Send)
			payments.GET("/history", paymentHandler.History)
		}

		api.GET("/csv/template", csvHandler.Template)
		api.GET("/contacts", contactHandler.List)
	}

	return r
}
