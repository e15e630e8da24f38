package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"bizpass/cmd/middleware"
	"bizpass/internal/service"
)

type Routers struct {
	Service    service.Service
	UploadsDir string
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	app.GET("/health", func(c *ginext.Context) {
		c.JSON(200, map[string]string{"status": "ok"})
	})

	// Public verification surface reached by scanning a QR code.
	app.GET("/verify/:id", r.Service.GetVerification)
	app.POST("/verify/:id", r.Service.ScanPass)

	app.Static("/uploads", r.UploadsDir)

	apiGroup := app.Group("/v1")
	apiGroup.Use(middleware.AuthMiddleware())

	apiGroup.POST("/businesses", r.Service.CreateBusiness)
	apiGroup.GET("/businesses", r.Service.GetBusinesses)
	apiGroup.GET("/businesses/active", r.Service.GetActiveBusiness)
	apiGroup.PUT("/businesses/active", r.Service.SwitchBusiness)
	apiGroup.GET("/businesses/:id", r.Service.GetBusiness)
	apiGroup.PUT("/businesses/:id", r.Service.UpdateBusiness)
	apiGroup.DELETE("/businesses/:id", r.Service.DeleteBusiness)

	apiGroup.POST("/items", r.Service.CreateItem)
	apiGroup.GET("/items", r.Service.GetItems)
	apiGroup.PUT("/items/:id", r.Service.UpdateItem)
	apiGroup.DELETE("/items/:id", r.Service.DeleteItem)

	apiGroup.POST("/documents", r.Service.CreateDocument)
	apiGroup.GET("/documents", r.Service.GetDocuments)
	apiGroup.GET("/documents/:id", r.Service.GetDocument)
	apiGroup.PUT("/documents/:id", r.Service.UpdateDocument)
	apiGroup.DELETE("/documents/:id", r.Service.DeleteDocument)

	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events", r.Service.GetEvents)
	apiGroup.GET("/events/:id", r.Service.GetEvent)
	apiGroup.PUT("/events/:id", r.Service.UpdateEvent)
	apiGroup.DELETE("/events/:id", r.Service.DeleteEvent)

	apiGroup.POST("/passes", r.Service.CreatePass)
	apiGroup.GET("/passes", r.Service.GetPasses)
	apiGroup.GET("/passes/:id", r.Service.GetPass)
	apiGroup.PUT("/passes/:id", r.Service.UpdatePass)
	apiGroup.POST("/passes/:id/cancel", r.Service.CancelPass)
	apiGroup.GET("/passes/:id/scans", r.Service.GetPassScans)

	apiGroup.GET("/dashboard", r.Service.GetDashboard)

	return app
}
