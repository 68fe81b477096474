// Package views holds the HTML pages rendered by the gin handlers. Every
// user-controlled value goes through html/template escaping.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
)

//go:embed templates/*.html
var templates embed.FS

// Page names accepted by gin's c.HTML.
const (
	Index        = "index.html"
	UploadForm   = "upload_form.html"
	UploadResult = "upload_result.html"
	Gallery      = "gallery.html"
	Albums       = "albums.html"
	CreateAlbum  = "create_album.html"
	Message      = "message.html"
)

// Load parses the embedded templates for r.SetHTMLTemplate.
func Load() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"humanSize":  HumanSize,
		"formatTime": formatTime,
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// HumanSize renders a byte count the way file managers do.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Common is embedded in every page.
type Common struct {
	Title string
	User  *models.User
}

type IndexPage struct {
	Common
}

type UploadFormPage struct {
	Common
	Albums   []models.Album
	Album    string
	MaxFiles int
	MaxSize  int64
}

// FailedUpload names the file that stopped an upload and why.
type FailedUpload struct {
	Name   string
	Reason string
}

type UploadResultPage struct {
	Common
	Album        string
	Stored       []models.StoredFile
	Failed       *FailedUpload
	NotAttempted []string
}

type GalleryPage struct {
	Common
	Album string
	Files []models.StoredFile
}

type AlbumsPage struct {
	Common
	Albums []models.Album
}

type CreateAlbumPage struct {
	Common
	Error string
	Name  string
}

type MessagePage struct {
	Common
	Message string
	Error   bool
	Back    string
}
