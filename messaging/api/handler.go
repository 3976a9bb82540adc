// Package api exposes the messaging HTTP surface. Every endpoint requires
// an authenticated caller; membership checks happen in the service layer.
package api

import (
	"net/http"
	"strconv"

	"leadmsg/backend/messaging/models"
	"leadmsg/backend/messaging/service"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type MessagingHandler struct {
	directory *service.DirectoryService
	ledger    *service.LedgerService
	uploader  *service.UploaderService
	readState *service.ReadStateService
	lifecycle *service.LifecycleService
	log       *logger.Logger
}

func NewMessagingHandler(
	directory *service.DirectoryService,
	ledger *service.LedgerService,
	uploader *service.UploaderService,
	readState *service.ReadStateService,
	lifecycle *service.LifecycleService,
	log *logger.Logger,
) *MessagingHandler {
	return &MessagingHandler{
		directory: directory,
		ledger:    ledger,
		uploader:  uploader,
		readState: readState,
		lifecycle: lifecycle,
		log:       log,
	}
}

// ListConversations returns the caller's conversations, most recent first.
func (h *MessagingHandler) ListConversations(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	summaries, err := h.directory.List(c.Request.Context(), callerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// CreateDirect opens a direct conversation with another user, returning
// the existing one when the pair already has a conversation.
func (h *MessagingHandler) CreateDirect(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	var req models.CreateDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	conv, err := h.directory.CreateOrGetDirect(c.Request.Context(), callerID, req.OtherUserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// CreateGroup creates a group conversation with the caller and the listed
// members.
func (h *MessagingHandler) CreateGroup(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	conv, err := h.directory.CreateGroup(c.Request.Context(), callerID, req.MemberIDs, req.Name)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, conv)
}

// Rename changes a group conversation's name.
func (h *MessagingHandler) Rename(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	var req models.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	conv, err := h.directory.Rename(c.Request.Context(), c.Param("id"), callerID, req.Name)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// ListMessages returns one page of a conversation's history, oldest first
// within the page.
func (h *MessagingHandler) ListMessages(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		c.Error(err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.Error(err)
		return
	}

	page, err := h.ledger.ListMessages(c.Request.Context(), c.Param("id"), callerID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// SendMessage appends a message to the conversation. A JSON body sends a
// text message; a multipart body sends a message with attachments and
// optional caption content.
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	var req models.SendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	msg, err := h.ledger.SendText(c.Request.Context(), c.Param("id"), callerID, req.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// SendAttachments accepts a multipart form with one to five files and an
// optional content field, and commits them as a single message.
func (h *MessagingHandler) SendAttachments(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.Error(errors.NewValidationError("expected a multipart form with files"))
		return
	}

	headers := form.File["files"]
	files := make([]models.UploadFile, 0, len(headers))
	for _, header := range headers {
		reader, err := header.Open()
		if err != nil {
			c.Error(errors.NewValidationError("could not read uploaded file " + header.Filename))
			return
		}
		defer reader.Close()

		files = append(files, models.UploadFile{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Reader:      reader,
		})
	}

	content := c.PostForm("content")

	msg, err := h.uploader.SendWithAttachments(c.Request.Context(), c.Param("id"), callerID, files, content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkRead advances the caller's read watermark for the conversation.
func (h *MessagingHandler) MarkRead(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	if err := h.readState.MarkRead(c.Request.Context(), c.Param("id"), callerID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Leave removes the caller from the conversation, tearing it down if they
// were the last participant.
func (h *MessagingHandler) Leave(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	if err := h.lifecycle.Leave(c.Request.Context(), c.Param("id"), callerID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterRoutes mounts the messaging endpoints, all behind auth.
func (h *MessagingHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	conversations := rg.Group("/conversations", auth)
	{
		conversations.GET("", h.ListConversations)
		conversations.POST("/direct", h.CreateDirect)
		conversations.POST("/group", h.CreateGroup)
		conversations.PATCH("/:id", h.Rename)
		conversations.GET("/:id/messages", h.ListMessages)
		conversations.POST("/:id/messages", h.SendMessage)
		conversations.POST("/:id/attachments", h.SendAttachments)
		conversations.POST("/:id/read", h.MarkRead)
		conversations.DELETE("/:id", h.Leave)
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.NewValidationError(name + " must be a non-negative integer")
	}
	return v, nil
}
