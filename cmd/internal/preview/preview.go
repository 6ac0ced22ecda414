package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"content-pipeline/config"
	"content-pipeline/models"
)

const (
	maxFileTitleRunes = 60
	fallbackFileName  = "generated_article_preview.html"
)

// RenderMarkdown converts an article body to HTML. Raw HTML in the source is dropped.
func RenderMarkdown(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return template.HTML("")
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML,
	})
	return template.HTML(markdown.ToHTML([]byte(text), p, renderer))
}

type Renderer struct {
	outputDir string
	now       func() time.Time
}

func New(cfg config.PreviewConfig) *Renderer {
	return &Renderer{outputDir: cfg.OutputDir, now: time.Now}
}

type figure struct {
	URL       string
	Alt       string
	Caption   string
	Author    string
	AuthorURL string
	SourceURL string
}

type pageData struct {
	Title           string
	MetaDescription string
	Body            template.HTML
	Tags            string
	Figure          *figure
}

// Render returns the standalone preview page for article, showing the first image.
func (r *Renderer) Render(article *models.GeneratedArticle, imgs []models.ImageAttachment) ([]byte, error) {
	data := pageData{
		Title:           article.Title,
		MetaDescription: article.MetaDescription,
		Body:            RenderMarkdown(article.Body),
		Tags:            strings.Join(article.Tags, ", "),
	}
	if data.Title == "" {
		data.Title = "Artículo generado"
	}
	for _, img := range imgs {
		if img.URL == "" {
			continue
		}
		alt := img.AltText
		if alt == "" {
			alt = data.Title
		}
		data.Figure = &figure{
			URL:       img.URL,
			Alt:       alt,
			Caption:   strings.TrimSpace(img.Caption),
			Author:    img.Author,
			AuthorURL: img.AuthorURL,
			SourceURL: img.SourcePageURL,
		}
		break
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the preview into the output directory and returns the file path.
func (r *Renderer) WriteFile(article *models.GeneratedArticle, imgs []models.ImageAttachment) (string, error) {
	page, err := r.Render(article, imgs)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create preview dir: %w", err)
	}

	path := filepath.Join(r.outputDir, FileName(article.Title, r.now()))
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", fmt.Errorf("write preview: %w", err)
	}
	return path, nil
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-.]`)

// FileName builds "<safe title>_<yyyymmdd_hhmmss>_preview.html".
func FileName(title string, at time.Time) string {
	safe := unsafeFileChars.ReplaceAllString(title, "")
	safe = strings.Join(strings.Fields(safe), "_")
	safe = strings.Trim(safe, "._-")
	if utf8.RuneCountInString(safe) > maxFileTitleRunes {
		safe = string([]rune(safe)[:maxFileTitleRunes])
	}
	if safe == "" {
		return fallbackFileName
	}
	return fmt.Sprintf("%s_%s_preview.html", safe, at.Format("20060102_150405"))
}

var pageTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="description" content="{{.MetaDescription}}">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, serif; line-height: 1.7; color: #333; background: #f9f9f9; margin: 0; }
    main { max-width: 780px; margin: 40px auto; padding: 32px 40px; background: #fff; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.06); }
    h1 { font-family: Helvetica, Arial, sans-serif; color: #0056b3; line-height: 1.25; }
    .meta-description { font-style: italic; color: #666; border-left: 4px solid #0056b3; padding-left: 12px; }
    figure { margin: 30px auto; text-align: center; }
    figure img { max-width: 100%; height: auto; border-radius: 8px; }
    figcaption { font-size: 0.9em; color: #555; margin-top: 10px; }
    figcaption a { color: #555; }
    .tags { margin-top: 40px; font-size: 0.9em; color: #777; border-top: 1px solid #eee; padding-top: 12px; }
  </style>
</head>
<body>
<main>
  <article>
    <h1>{{.Title}}</h1>
    {{- if .MetaDescription}}
    <p class="meta-description">{{.MetaDescription}}</p>
    {{- end}}
    {{- with .Figure}}
    <figure>
      <img src="{{.URL}}" alt="{{.Alt}}">
      <figcaption>
        {{- if .Caption}}{{.Caption}} ({{end -}}
        Foto por {{if .AuthorURL}}<a href="{{.AuthorURL}}" target="_blank" rel="noopener noreferrer nofollow">{{.Author}}</a>{{else}}{{.Author}}{{end}}
        | en {{if .SourceURL}}<a href="{{.SourceURL}}" target="_blank" rel="noopener noreferrer nofollow">Unsplash</a>{{else}}Unsplash{{end}}
        {{- if .Caption}}){{end -}}
      </figcaption>
    </figure>
    {{- end}}
    <div class="article-body">
{{.Body}}
    </div>
    {{- if .Tags}}
    <p class="tags"><strong>Etiquetas:</strong> {{.Tags}}</p>
    {{- end}}
  </article>
</main>
</body>
</html>
`))
