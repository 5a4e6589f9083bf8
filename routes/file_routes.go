package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterFileRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	fileController := controllers.NewFileController(container.FileService, container.MaxFileSize)

	files := rg.Group("/files")

	// Shared download carries its own capability token; no session needed.
	files.GET("/:id/shared", fileController.SharedDownload)

	authed := files.Group("")
	authed.Use(middleware.AuthMiddleware(container.Tokens))
	{
		authed.POST("", fileController.UploadFile)
		authed.GET("", fileController.ListFiles) // ?folder_id= for one level, omitted = root
		authed.GET("/:id", fileController.GetFileMetadata)
		authed.GET("/:id/download", fileController.DownloadFile)
		authed.GET("/:id/view", fileController.ViewFile)
		authed.POST("/:id/share", fileController.IssueDownloadToken)
		authed.PATCH("/:id/rename", fileController.RenameFile)
		authed.DELETE("/:id", fileController.DeleteFile)
	}
}
