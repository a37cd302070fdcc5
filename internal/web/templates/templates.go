package templates

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"
)

// DownloadFilename is the suggested name of the downloaded result
const DownloadFilename = "hairstyle-makeover.png"

//go:embed html/*.html
var files embed.FS

var pages = template.Must(template.New("").ParseFS(files, "html/*.html"))

// PageData is everything the page and its partials render
type PageData struct {
	UserPhotoURL template.URL
	HasUserPhoto bool
	ReferenceURL template.URL
	HasReference bool
	PromptText   string
	Mode         string
	IsTextMode   bool
	IsGenerating bool
	ErrorMessage string
	ResultURL    template.URL
	HasResult    bool
	Description  string
	MaxUploadMB  int64
	DownloadName string

	// Mode toggle
	ReferenceMode    string
	ReferenceLabel   string
	DescriptionMode  string
	DescriptionLabel string
}

// Home renders the full page
func Home(data PageData) templ.Component {
	return templ.FromGoHTML(pages.Lookup("page"), data)
}

// ResultPanel renders the result region polled by htmx
func ResultPanel(data PageData) templ.Component {
	return templ.FromGoHTML(pages.Lookup("result"), data)
}
