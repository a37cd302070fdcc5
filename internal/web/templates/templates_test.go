package templates

import (
	"bytes"
	"context"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, data PageData, full bool) string {
	t.Helper()
	buf := new(bytes.Buffer)
	component := ResultPanel(data)
	if full {
		component = Home(data)
	}
	require.NoError(t, component.Render(context.Background(), buf))
	return buf.String()
}

func TestHome_EmptyState(t *testing.T) {
	html := render(t, PageData{Mode: "REFERENCE_IMAGE", MaxUploadMB: 25, DownloadName: DownloadFilename}, true)

	assert.Contains(t, html, "Your Photo")
	assert.Contains(t, html, "Target Style")
	assert.Contains(t, html, "No photo yet")
	assert.Contains(t, html, "Generate Hairstyle")
	assert.Contains(t, html, "Your new hairstyle will appear here.")
	assert.NotContains(t, html, "Download Image")
}

func TestHome_DataURLsAreNotSanitised(t *testing.T) {
	html := render(t, PageData{
		UserPhotoURL: template.URL("data:image/png;base64,AAAA"),
		HasUserPhoto: true,
	}, true)

	assert.Contains(t, html, `src="data:image/png;base64,AAAA"`)
	assert.NotContains(t, html, "ZgotmplZ")
}

func TestHome_TextMode(t *testing.T) {
	html := render(t, PageData{IsTextMode: true, PromptText: "<b>bob</b>"}, true)

	assert.Contains(t, html, `name="prompt" form="generate-form"`)
	assert.Contains(t, html, `id="generate-form"`)
	assert.Contains(t, html, `formaction="/session/prompt"`)
	assert.Contains(t, html, "&lt;b&gt;bob&lt;/b&gt;")
	assert.NotContains(t, html, "No reference photo yet")
}

func TestHome_GeneratingDisablesButton(t *testing.T) {
	html := render(t, PageData{IsGenerating: true}, true)

	assert.Contains(t, html, "disabled")
	assert.Contains(t, html, "Generating...")
	assert.Contains(t, html, `hx-trigger="every 2s"`)
}

func TestResultPanel(t *testing.T) {
	html := render(t, PageData{
		HasResult:    true,
		ResultURL:    template.URL("data:image/png;base64,RESULT"),
		DownloadName: DownloadFilename,
	}, false)

	assert.Contains(t, html, `src="data:image/png;base64,RESULT"`)
	assert.Contains(t, html, "Download Image")
	assert.Contains(t, html, `download="hairstyle-makeover.png"`)
	assert.NotContains(t, html, "hx-get")

	html = render(t, PageData{ErrorMessage: "quota exceeded"}, false)
	assert.Contains(t, html, "quota exceeded")
	assert.Contains(t, html, `role="alert"`)
}

func TestHome_ModeToggleLabels(t *testing.T) {
	html := render(t, PageData{
		ReferenceMode:    "REFERENCE_IMAGE",
		ReferenceLabel:   "Reference",
		DescriptionMode:  "TEXT_DESCRIPTION",
		DescriptionLabel: "Description",
	}, true)

	assert.Contains(t, html, `value="REFERENCE_IMAGE"`)
	assert.Contains(t, html, `value="TEXT_DESCRIPTION"`)
	assert.Contains(t, html, ">Reference</button>")
	assert.Contains(t, html, ">Description</button>")
}
