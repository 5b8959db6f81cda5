package office

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"taskdrive/internal/blob"
	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
	"taskdrive/internal/service"
)

// SessionConfig is the signed editing-session descriptor handed to the
// external editor. Field names follow the editor's wire format.
type SessionConfig struct {
	DocumentType string       `json:"documentType"`
	Document     Document     `json:"document"`
	EditorConfig EditorConfig `json:"editorConfig"`
	Token        string       `json:"token,omitempty"`
}

type Document struct {
	FileType    string      `json:"fileType"`
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Permissions Permissions `json:"permissions"`
}

// Permissions gates editing capabilities on the resolved access level.
// Download, print, comment and copy are always allowed for anyone who can
// open a session at all.
type Permissions struct {
	Edit      bool `json:"edit"`
	Review    bool `json:"review"`
	FillForms bool `json:"fillForms"`
	Download  bool `json:"download"`
	Print     bool `json:"print"`
	Comment   bool `json:"comment"`
	Copy      bool `json:"copy"`
}

type EditorConfig struct {
	Mode        string `json:"mode"`
	CallbackURL string `json:"callbackUrl"`
}

// SessionManager builds signed session descriptors and consumes the
// editor's save callback.
type SessionManager struct {
	files   repositories.FileRepository
	blobs   blob.Store
	perms   *service.PermissionResolver
	secret  []byte
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// NewSessionManager creates a new document session manager. baseURL is the
// externally reachable address of this backend; the editor fetches document
// bytes and posts callbacks to it.
func NewSessionManager(
	files repositories.FileRepository,
	blobs blob.Store,
	perms *service.PermissionResolver,
	secret []byte,
	baseURL string,
	logger *slog.Logger,
) *SessionManager {
	return &SessionManager{
		files:   files,
		blobs:   blobs,
		perms:   perms,
		secret:  secret,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
}

// DocumentKey is the content-identity token for a file. It changes exactly
// when content changes (every overwrite advances updated_at) and is stable
// across repeated views of unchanged content, which is how the external
// editor decides whether a live collaborative session can be reused.
func DocumentKey(file *models.File) string {
	return fmt.Sprintf("file_%s_%d", file.ID, file.UpdatedAt.UnixMilli())
}

// BuildConfig resolves the user's effective permission on the file and
// returns a signed session descriptor. Any access yields a view session;
// edit capabilities require an edit-level permission.
func (m *SessionManager) BuildConfig(ctx context.Context, fileID, userID string) (*SessionConfig, error) {
	file, err := m.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	perm, err := m.perms.ResolveFile(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}
	if !perm.CanView() {
		return nil, &domain.ForbiddenError{Message: "no access to this file"}
	}

	mode := "view"
	if perm.CanEdit() {
		mode = "edit"
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(file.Name)), ".")
	cfg := &SessionConfig{
		DocumentType: documentTypeForExtension(ext),
		Document: Document{
			FileType: ext,
			Key:      DocumentKey(file),
			Title:    file.Name,
			// The editor cannot present user credentials; this URL is
			// itself the download capability.
			URL: fmt.Sprintf("%s/api/files/%s/onlyoffice-download", m.baseURL, file.ID),
			Permissions: Permissions{
				Edit:      perm.CanEdit(),
				Review:    perm.CanEdit(),
				FillForms: perm.CanEdit(),
				Download:  true,
				Print:     true,
				Comment:   true,
				Copy:      true,
			},
		},
		EditorConfig: EditorConfig{
			Mode:        mode,
			CallbackURL: fmt.Sprintf("%s/api/onlyoffice/callback/%s", m.baseURL, file.ID),
		},
	}

	token, err := signPayload(m.secret, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Token = token

	m.logger.Debug("session descriptor built",
		"file_id", file.ID,
		"document_key", cfg.Document.Key,
		"mode", mode,
	)

	return cfg, nil
}

// documentTypeForExtension maps a file extension to the editor's document
// family.
func documentTypeForExtension(ext string) string {
	switch ext {
	case "xls", "xlsx", "ods", "csv":
		return "cell"
	case "ppt", "pptx", "odp":
		return "slide"
	default:
		return "word"
	}
}
