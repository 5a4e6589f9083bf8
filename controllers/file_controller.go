package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type FileController struct {
	fileService *services.FileService
	maxFileSize int64
}

func NewFileController(fileService *services.FileService, maxFileSize int64) *FileController {
	return &FileController{
		fileService: fileService,
		maxFileSize: maxFileSize,
	}
}

func (fc *FileController) UploadFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", err.Error())
		return
	}
	if fc.maxFileSize > 0 && fileHeader.Size > fc.maxFileSize {
		utils.BadRequestResponse(c, fmt.Sprintf("File exceeds %d byte limit", fc.maxFileSize), nil)
		return
	}

	var folderID *string
	if v := c.PostForm("folder_id"); v != "" {
		folderID = &v
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to read upload", err.Error())
		return
	}
	defer src.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	file, err := fc.fileService.Upload(c.Request.Context(), userID, folderID, fileHeader.Filename, mimeType, src)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "File uploaded successfully", file)
}

func (fc *FileController) ListFiles(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	var folderID *string
	if v := c.Query("folder_id"); v != "" {
		folderID = &v
	}

	files, err := fc.fileService.List(c.Request.Context(), userID, folderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Files retrieved", files)
}

func (fc *FileController) GetFileMetadata(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	file, err := fc.fileService.GetMetadata(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "File metadata retrieved", file)
}

// DownloadFile is the session-authenticated content path, served as an
// attachment.
func (fc *FileController) DownloadFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	content, err := fc.fileService.GetContentForOwner(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	fc.streamContent(c, content, "attachment")
}

// ViewFile serves content inline for previews. Same ownership gate as
// download; only the disposition differs.
func (fc *FileController) ViewFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	content, err := fc.fileService.GetContentForOwner(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	fc.streamContent(c, content, "inline")
}

// IssueDownloadToken mints a short-lived capability token for sharing one
// file without a session.
func (fc *FileController) IssueDownloadToken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	fileID := c.Param("id")
	tokenString, err := fc.fileService.IssueDownloadToken(c.Request.Context(), userID, fileID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Download token generated", gin.H{
		"token":        tokenString,
		"download_url": fmt.Sprintf("/api/files/%s/shared?token=%s", fileID, tokenString),
	})
}

// SharedDownload serves content to the holder of a valid file-download
// capability token. No session required; the token is the credential.
func (fc *FileController) SharedDownload(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		utils.UnauthorizedResponse(c, "Download token required")
		return
	}

	content, err := fc.fileService.GetContentShared(c.Request.Context(), tokenString, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	disposition := "attachment"
	if c.Query("inline") == "true" {
		disposition = "inline"
	}
	fc.streamContent(c, content, disposition)
}

func (fc *FileController) RenameFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	file, err := fc.fileService.RenameFile(c.Request.Context(), c.Param("id"), userID, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "File renamed successfully", file)
}

func (fc *FileController) DeleteFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	if err := fc.fileService.DeleteFile(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "File deleted successfully", nil)
}

func (fc *FileController) streamContent(c *gin.Context, content *services.FileContent, disposition string) {
	defer content.Reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, content.Name))
	c.Header("Content-Type", content.MimeType)
	if content.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(content.Size, 10))
	}
	c.Status(http.StatusOK)
	io.Copy(c.Writer, content.Reader)
}
