package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"gala/cmd/middleware"
	"gala/internal/service"
)

type Routers struct {
	Service   service.Service
	JWTSecret string
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	apiGroup := app.Group("/v1")
	apiGroup.Use(middleware.AuthMiddleware(r.JWTSecret))

	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events", r.Service.ListEvents)
	apiGroup.GET("/events/:id", r.Service.GetEvent)
	apiGroup.PUT("/events/:id", r.Service.UpdateEvent)
	apiGroup.DELETE("/events/:id", r.Service.DeleteEvent)
	apiGroup.POST("/events/:id/cover", r.Service.UploadCover)

	apiGroup.GET("/events/:id/media", r.Service.ListMedia)
	apiGroup.POST("/events/:id/media/approve", r.Service.ApproveMedia)
	apiGroup.POST("/events/:id/media/delete", r.Service.DeleteMedia)
	apiGroup.DELETE("/events/:id/media", r.Service.DeleteAllMedia)

	apiGroup.POST("/events/:id/categories", r.Service.AddCategory)
	apiGroup.DELETE("/events/:id/categories/:categoryID", r.Service.RemoveCategory)

	apiGroup.GET("/events/:id/wishes", r.Service.ListWishes)
	apiGroup.POST("/events/:id/wishes/:wishID/approve", r.Service.ApproveWish)
	apiGroup.DELETE("/events/:id/wishes/:wishID", r.Service.DeleteWish)

	apiGroup.POST("/events/:id/album-emails", r.Service.SendAlbumEmails)

	return app
}
