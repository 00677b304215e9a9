package handler

import (
	"net/http"

	"docuchat/internal/services"
	"docuchat/internal/transport/httpdto"
	"docuchat/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProcessingHandler struct {
	service *services.ProcessingService
}

func NewProcessingHandler(service *services.ProcessingService) *ProcessingHandler {
	return &ProcessingHandler{service: service}
}

func (h *ProcessingHandler) StartProcessing(c *gin.Context) {
	fileID, owner, ok := fileRequestScope(c)
	if !ok {
		return
	}

	session, err := h.service.StartProcessing(c.Request.Context(), owner, fileID)
	if err != nil {
		// A failed collaborator call persists a failed session; include its
		// id so the caller can inspect and retry it.
		if session.ID != uuid.Nil {
			resp := httpdto.NewErrorResponse(err.Error(), apperrors.Kind(err))
			resp.Data = gin.H{"processing_id": session.ID.String(), "status": session.Status}
			c.JSON(apperrors.HTTPStatus(err), resp)
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSessionDTO(session, true)))
}

func (h *ProcessingHandler) GetSession(c *gin.Context) {
	processingID, owner, ok := fileRequestScope(c)
	if !ok {
		return
	}

	session, err := h.service.GetSession(c.Request.Context(), owner, processingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSessionDTO(session, false)))
}

func (h *ProcessingHandler) Ask(c *gin.Context) {
	processingID, owner, ok := fileRequestScope(c)
	if !ok {
		return
	}

	var req httpdto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_ERROR"))
		return
	}

	entry, err := h.service.Ask(c.Request.Context(), owner, processingID, req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewEntryDTO(entry)))
}

func (h *ProcessingHandler) History(c *gin.Context) {
	processingID, owner, ok := fileRequestScope(c)
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), owner, processingID)
	if err != nil {
		respondError(c, err)
		return
	}

	dtos := make([]httpdto.EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, httpdto.NewEntryDTO(e))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.HistoryResponse{
		ProcessingID: processingID.String(),
		Entries:      dtos,
		Total:        len(dtos),
	}))
}
