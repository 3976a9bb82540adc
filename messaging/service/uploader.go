package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"leadmsg/backend/messaging/models"
	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/storage"
	"leadmsg/backend/shared/observability"

	"github.com/google/uuid"
)

// Upload limits for a single attachment message.
const (
	MaxFilesPerMessage = 5
	MaxFileSize        = 10 * 1024 * 1024
	MaxFileNameLength  = 255
)

// allowedMIMETypes gates uploads by declared content type.
var allowedMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-powerpoint":                                     true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"text/plain":      true,
	"text/csv":        true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

// allowedExtensions covers uploads whose MIME type is missing or generic.
var allowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".txt": true, ".csv": true,
	".mp4": true, ".mov": true, ".webm": true,
}

// fallbackMIMEType is recorded when a file declares no content type.
const fallbackMIMEType = "application/octet-stream"

// UploaderService persists one-or-many files atomically with a message.
//
// Object storage has no multi-object transaction, so atomicity comes from
// ordering: upload everything first under collision-resistant temporary
// keys, then commit the message and attachment rows in one database
// transaction. An attachment only exists once its row commits; if the
// commit fails, the accumulated key manifest drives a best-effort storage
// sweep so no orphaned blobs survive a failed call.
type UploaderService struct {
	convs     repository.ConversationRepository
	msgs      repository.MessageRepository
	store     storage.Gateway
	presenter *presenter
	limits    Limits
	log       *logger.Logger
}

func NewUploaderService(
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	store storage.Gateway,
	presenter *presenter,
	limits Limits,
	log *logger.Logger,
) *UploaderService {
	return &UploaderService{
		convs:     convs,
		msgs:      msgs,
		store:     store,
		presenter: presenter,
		limits:    limits.withDefaults(),
		log:       log,
	}
}

// SendWithAttachments validates every file, uploads them all, then commits
// the message with its attachment rows in a single transaction.
func (s *UploaderService) SendWithAttachments(ctx context.Context, conversationID, callerID string, files []models.UploadFile, content string) (*models.MessageResponse, error) {
	defer observe("send_with_attachments")()

	if _, err := requireParticipant(ctx, s.convs, conversationID, callerID); err != nil {
		return nil, err
	}

	// Validation happens in full before any storage or database I/O.
	if len(files) == 0 {
		return nil, errors.NewValidationError("at least one file is required")
	}
	if len(files) > s.limits.MaxFilesPerMessage {
		return nil, errors.NewValidationError(fmt.Sprintf("at most %d files per message", s.limits.MaxFilesPerMessage))
	}
	trimmed, err := validateContent(content, false, s.limits.MaxContentRunes)
	if err != nil {
		return nil, err
	}
	for i := range files {
		if err := validateFile(&files[i], s.limits); err != nil {
			return nil, err
		}
	}

	// Upload phase. Keys that succeed are accumulated as they happen; the
	// manifest is the rollback target for every failure past this point.
	var manifest []string
	for i := range files {
		file := &files[i]
		key := s.storageKey(conversationID, file.Name)

		path, err := s.store.Upload(ctx, key, file.Reader, file.Size, contentType(file))
		if err != nil {
			s.compensate(ctx, manifest)
			return nil, errors.NewStorageError(fmt.Sprintf("failed to upload %q", file.Name))
		}
		manifest = append(manifest, path)

		observability.AttachmentsUploaded.Inc()
		observability.UploadBytes.Add(float64(file.Size))
	}

	// Commit phase: message, attachment rows, and the conversation recency
	// bump land in one transaction.
	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       callerID,
		Content:        trimmed,
		CreatedAt:      time.Now().UTC(),
	}
	if message.Content == "" {
		message.Content = caption(len(files))
	}

	attachments := make([]models.Attachment, len(files))
	for i := range files {
		attachments[i] = models.Attachment{
			FileName: displayName(files[i].Name),
			FileType: contentType(&files[i]),
			FileSize: files[i].Size,
			FilePath: manifest[i],
		}
	}

	if err := s.msgs.CreateWithAttachments(ctx, message, attachments); err != nil {
		// The commit failed; the uploaded objects are now orphans. Sweep
		// them, then surface the commit error, never a sweep error.
		observability.CompensationSweeps.Inc()
		s.compensate(ctx, manifest)
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr
		}
		return nil, errors.NewPersistenceError("failed to save attachment message")
	}

	observability.MessagesSent.WithLabelValues("attachment").Inc()

	resp := s.presenter.message(ctx, message)
	return &resp, nil
}

// compensate best-effort deletes every uploaded object in the manifest.
// Individual failures are logged and do not stop the sweep. The sweep runs
// detached from the caller's cancellation: a client disconnect is a common
// cause of the commit failure that triggers it, and a canceled context
// would abort every delete and leak the blobs.
func (s *UploaderService) compensate(ctx context.Context, manifest []string) {
	ctx = context.WithoutCancel(ctx)
	for _, path := range manifest {
		if err := s.store.Delete(ctx, path); err != nil {
			observability.CompensationFailures.Inc()
			s.log.LogError(err, "compensation sweep could not delete object",
				"path", path,
			)
		}
	}
}

// storageKey builds a collision-resistant key scoped to the conversation.
func (s *UploaderService) storageKey(conversationID, fileName string) string {
	return fmt.Sprintf("conversations/%s/%d_%s_%s",
		conversationID,
		time.Now().UnixNano(),
		uuid.New().String()[:8],
		sanitizeFileName(fileName),
	)
}

func validateFile(file *models.UploadFile, limits Limits) error {
	name := file.Name
	if len(name) == 0 || len(name) > MaxFileNameLength {
		return errors.NewValidationError(fmt.Sprintf("invalid file name %q: must be 1-255 characters", name))
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return errors.NewValidationError(fmt.Sprintf("invalid file name %q: path separators are not allowed", name))
	}
	if file.Size <= 0 {
		return errors.NewValidationError(fmt.Sprintf("file %q is empty", name))
	}
	if file.Size > limits.MaxFileSize {
		return errors.NewValidationError(fmt.Sprintf("file %q exceeds the %d byte limit", name, limits.MaxFileSize))
	}

	mime := strings.ToLower(strings.TrimSpace(file.ContentType))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedMIMETypes[mime] && !allowedExtensions[ext] {
		return errors.NewValidationError(fmt.Sprintf("file %q has an unsupported type", name))
	}
	return nil
}

// contentType returns the file's declared MIME type, or the generic binary
// type when none was declared.
func contentType(file *models.UploadFile) string {
	if strings.TrimSpace(file.ContentType) == "" {
		return fallbackMIMEType
	}
	return file.ContentType
}

// sanitizeFileName makes a name safe for use inside a storage key.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}

// displayName sanitizes the original name for display only; it is never
// used as a storage path.
func displayName(name string) string {
	return strings.TrimSpace(name)
}

// caption synthesizes content for attachment-only messages.
func caption(n int) string {
	if n == 1 {
		return "📎 1 file"
	}
	return fmt.Sprintf("📎 %d files", n)
}
