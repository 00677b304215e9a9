package handler

import (
	"net/http"

	"docuchat/internal/repository"
	"docuchat/internal/services"
	"docuchat/internal/transport/httpdto"
	"docuchat/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FileHandler struct {
	service *services.FileService
}

func NewFileHandler(service *services.FileService) *FileHandler {
	return &FileHandler{service: service}
}

func (h *FileHandler) RequestUpload(c *gin.Context) {
	var req httpdto.RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_ERROR"))
		return
	}

	owner, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	input := services.RequestUploadInput{
		Filename:     req.Filename,
		ContentType:  req.ContentType,
		DeclaredSize: req.DeclaredSize,
	}
	if req.ProjectID != "" {
		projectID, err := uuid.Parse(req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid project_id", "VALIDATION_ERROR"))
			return
		}
		input.ProjectID = uuid.NullUUID{UUID: projectID, Valid: true}
	}

	grant, err := h.service.RequestUpload(c.Request.Context(), owner, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UploadGrantResponse{
		FileID:     grant.File.ID.String(),
		StorageKey: grant.File.StorageKey,
		UploadURL:  grant.Presign.URL,
		Method:     grant.Presign.Method,
		Headers:    grant.Presign.Headers,
		ExpiresIn:  int64(grant.Presign.ExpiresIn.Seconds()),
		Status:     grant.File.UploadStatus,
	}))
}

func (h *FileHandler) ConfirmUpload(c *gin.Context) {
	fileID, owner, ok := fileRequestScope(c)
	if !ok {
		return
	}

	var req httpdto.ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_ERROR"))
		return
	}

	f, err := h.service.ConfirmUpload(c.Request.Context(), owner, fileID, req.ActualSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewFileDTO(f)))
}

func (h *FileHandler) GetFile(c *gin.Context) {
	fileID, owner, ok := fileRequestScope(c)
	if !ok {
		return
	}

	f, err := h.service.GetFile(c.Request.Context(), owner, fileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewFileDTO(f)))
}

func (h *FileHandler) ListFiles(c *gin.Context) {
	owner, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	filter := repository.FileFilter{UploadStatus: c.Query("status")}
	if raw := c.Query("project_id"); raw != "" {
		projectID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid project_id", "VALIDATION_ERROR"))
			return
		}
		filter.ProjectID = uuid.NullUUID{UUID: projectID, Valid: true}
	}

	files, err := h.service.ListFiles(c.Request.Context(), owner, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	dtos := make([]httpdto.FileDTO, 0, len(files))
	for _, f := range files {
		dtos = append(dtos, httpdto.NewFileDTO(f))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListFilesResponse{Files: dtos, Total: len(dtos)}))
}

func (h *FileHandler) RequestDownload(c *gin.Context) {
	fileID, owner, ok := fileRequestScope(c)
	if !ok {
		return
	}

	presigned, f, err := h.service.RequestDownload(c.Request.Context(), owner, fileID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.DownloadGrantResponse{
		FileID:      f.ID.String(),
		Filename:    f.OriginalFilename,
		DownloadURL: presigned.URL,
		ExpiresIn:   int64(presigned.ExpiresIn.Seconds()),
	}))
}

func (h *FileHandler) DeleteFile(c *gin.Context) {
	fileID, owner, ok := fileRequestScope(c)
	if !ok {
		return
	}

	if err := h.service.DeleteFile(c.Request.Context(), owner, fileID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": fileID.String()}))
}

func fileRequestScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid file id", "VALIDATION_ERROR"))
		return uuid.Nil, uuid.Nil, false
	}
	owner, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return uuid.Nil, uuid.Nil, false
	}
	return fileID, owner, true
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), apperrors.Kind(err)))
}
