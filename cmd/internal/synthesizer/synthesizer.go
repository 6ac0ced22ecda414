package synthesizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/internal/fetcher"
	"content-pipeline/cmd/internal/llm"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/models"
)

// PurposeSynthesis tags synthesizer calls in the LLM call log.
const PurposeSynthesis = "synthesis"

var (
	// ErrNoSources means no stored source satisfies score >= min and unused.
	ErrNoSources = errors.New("no qualifying sources")
	// ErrNoSourceContent means sources were selected but none could be re-fetched.
	ErrNoSourceContent = fmt.Errorf("%w: no source content could be fetched", ErrNoSources)
	// ErrSynthesisFailed covers model failures and unusable model output.
	ErrSynthesisFailed = errors.New("synthesis failed")
)

// SourceSelector is the read side of the source repository used for selection.
type SourceSelector interface {
	FindTopUnused(ctx context.Context, minScore int, limit int) ([]models.SourceArticle, error)
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

type Options struct {
	NumSources     int
	MinScore       int
	Length         string
	Tone           string
	PromptTemplate string
}

// Draft is a synthesized article that has not been stored yet.
type Draft struct {
	Topic              string
	Title              string
	MetaDescription    string
	Body               string
	Tags               []string
	AverageSourceScore float64
	SourceIDsUsed      []primitive.ObjectID
}

// Article converts the draft into a new GeneratedArticle document.
func (d *Draft) Article() *models.GeneratedArticle {
	return &models.GeneratedArticle{
		Topic:              d.Topic,
		Title:              d.Title,
		MetaDescription:    d.MetaDescription,
		Body:               d.Body,
		Tags:               d.Tags,
		State:              models.ArticleStateGenerated,
		AverageSourceScore: d.AverageSourceScore,
		SourceIDsUsed:      d.SourceIDsUsed,
	}
}

type Synthesizer struct {
	sources SourceSelector
	fetcher PageFetcher
	llm     llm.Client
}

func New(sources SourceSelector, f PageFetcher, client llm.Client) *Synthesizer {
	return &Synthesizer{sources: sources, fetcher: f, llm: client}
}

type loadedSource struct {
	id    primitive.ObjectID
	title string
	score int
	text  string
}

// Synthesize writes one article for topic from the best unused sources.
// Only the sources whose text could be re-fetched count as used.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, opts Options) (*Draft, error) {
	if opts.NumSources <= 0 {
		opts.NumSources = 1
	}

	selected, err := s.sources.FindTopUnused(ctx, opts.MinScore, opts.NumSources)
	if err != nil {
		return nil, fmt.Errorf("select sources: %w", err)
	}
	if len(selected) == 0 {
		return nil, ErrNoSources
	}
	logger.Log.Infof("synthesis for %q: %d sources selected (min score %d)", topic, len(selected), opts.MinScore)

	loaded := s.loadSources(ctx, selected)
	if len(loaded) == 0 {
		return nil, ErrNoSourceContent
	}

	var total int
	ids := make([]primitive.ObjectID, 0, len(loaded))
	for _, src := range loaded {
		total += src.score
		ids = append(ids, src.id)
	}
	avg := float64(total) / float64(len(loaded))

	prompt, err := buildPrompt(topic, loaded, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	raw, err := s.llm.Generate(llm.WithCallInfo(ctx, PurposeSynthesis, topic), prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	parsed, err := ParseResponse(raw)
	if err != nil {
		logger.Log.Warnf("unusable synthesis output for %q: %v", topic, err)
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	return &Draft{
		Topic:              topic,
		Title:              parsed.Title,
		MetaDescription:    parsed.MetaDescription,
		Body:               parsed.Body,
		Tags:               parsed.Tags,
		AverageSourceScore: avg,
		SourceIDsUsed:      ids,
	}, nil
}

func (s *Synthesizer) loadSources(ctx context.Context, selected []models.SourceArticle) []loadedSource {
	var loaded []loadedSource
	for _, src := range selected {
		if src.URL == "" || src.ID.IsZero() {
			continue
		}
		page, err := s.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			logger.Log.Warnf("source %s could not be re-fetched: %v", src.URL, err)
			continue
		}

		title := src.Title
		if title == "" {
			title = src.URL
		}
		loaded = append(loaded, loadedSource{
			id:    src.ID,
			title: title,
			score: src.RelevanceScore,
			text:  page.Text,
		})
	}
	return loaded
}

// MinWords maps a text length setting to the requested minimum body length.
func MinWords(length string) int {
	switch strings.ToLower(strings.TrimSpace(length)) {
	case "short":
		return 800
	case "long":
		return 2500
	default:
		return 1500
	}
}

const defaultPrompt = `Eres un redactor experto en contenido SEO. Escribe un artículo de blog original, útil y bien optimizado sobre el tema "{{.Topic}}".

Usa la información de las siguientes {{.SourceCount}} fuentes como base, pero sintetízala y reescríbela por completo con tus propias palabras. No copies frases ni párrafos de las fuentes.

---
{{.Sources}}
Instrucciones:
1. Extensión: el cuerpo debe tener al menos {{.MinWords}} palabras.
2. Tono: {{.Tone}}.
3. Responde SOLO con un objeto JSON válido con exactamente estas claves:
   - "title": título atractivo que incluya "{{.Topic}}"
   - "meta_description": meta descripción de 150 a 160 caracteres que incluya "{{.Topic}}"
   - "tags": lista de 3 a 4 palabras clave
   - "body": el artículo completo en Markdown (## para H2, ### para H3, listas con -, **negrita**), con introducción y conclusión
4. Incluye "{{.Topic}}" y las palabras de "tags" de forma natural en el título, la introducción y algunos encabezados.
5. Básate únicamente en las fuentes. No inventes datos.

No añadas texto antes ni después del JSON.
`

var defaultTemplate = template.Must(template.New("synthesizer").Parse(defaultPrompt))

type promptData struct {
	Topic       string
	Sources     string
	SourceCount int
	MinWords    int
	Length      string
	Tone        string
}

func buildPrompt(topic string, sources []loadedSource, opts Options) (string, error) {
	var sb strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&sb, "### Fuente %d: %s\n\n%s\n\n---\n\n", i+1, src.title, src.text)
	}

	tone := strings.TrimSpace(opts.Tone)
	if tone == "" {
		tone = "neutral"
	}
	data := promptData{
		Topic:       topic,
		Sources:     sb.String(),
		SourceCount: len(sources),
		MinWords:    MinWords(opts.Length),
		Length:      opts.Length,
		Tone:        tone,
	}

	tmpl := defaultTemplate
	if strings.TrimSpace(opts.PromptTemplate) != "" {
		custom, err := template.New("synthesizer_override").Parse(opts.PromptTemplate)
		if err != nil {
			logger.Log.Warnf("invalid generator prompt override, using default: %v", err)
		} else {
			tmpl = custom
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render synthesis prompt: %w", err)
	}
	return buf.String(), nil
}
