package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterFolderRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	folderController := controllers.NewFolderController(container.FolderService)

	folders := rg.Group("/folders")
	folders.Use(middleware.AuthMiddleware(container.Tokens))
	{
		folders.POST("", folderController.CreateFolder)
		folders.GET("", folderController.List)                   // ?parent_id= for one level, omitted = root
		folders.GET("/:id", folderController.GetContents)        // folder + immediate children
		folders.GET("/:id/path", folderController.GetPath)       // root→folder breadcrumb
		folders.PATCH("/:id/rename", folderController.RenameFolder)
		folders.PATCH("/:id/move", folderController.MoveFolder)
		folders.DELETE("/:id", folderController.DeleteFolder) // recursive
	}
}
