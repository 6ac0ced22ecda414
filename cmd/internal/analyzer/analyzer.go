package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"content-pipeline/cmd/internal/llm"
	"content-pipeline/cmd/internal/logger"
)

const (
	// PurposeRelevance tags analyzer calls in the LLM call log.
	PurposeRelevance = "relevance"

	maxTextRunes    = 8000
	maxSummaryRunes = 100
	maxTags         = 5
	minScore        = 1
	maxScore        = 10
)

var (
	ErrNoJSON       = errors.New("no JSON object in model output")
	ErrInvalidScore = errors.New("missing or non-numeric score")
)

// Input is one page to judge against a topic. PromptTemplate optionally overrides the
// default prompt; it sees .Topic, .Text, .Year and .PrevYear.
type Input struct {
	Topic          string
	Text           string
	PromptTemplate string
}

// Judgment is the model's verdict on one page.
type Judgment struct {
	Score   int      `json:"score"`
	Reason  string   `json:"reason"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Sentinel is the judgment used when analysis fails. It scores below any sane threshold.
func Sentinel() Judgment {
	return Judgment{Score: 1, Reason: "analysis error", Tags: []string{}}
}

const defaultPrompt = `Evalúa este artículo sobre "{{.Topic}}" y responde ÚNICAMENTE con un objeto JSON válido con estas claves:
- "score": entero de 1 a 10 (1 = irrelevante, 10 = excelente)
- "reason": explicación breve de la puntuación
- "summary": resumen del artículo de 100 caracteres como máximo
- "tags": lista de 3 a 5 palabras clave

Criterios de evaluación:
1. Relevancia: ¿trata directamente sobre "{{.Topic}}"?
2. Autoridad: ¿es una fuente fiable o citada?
3. Actualidad: ¿menciona hechos o fechas recientes ({{.PrevYear}}-{{.Year}})?
4. Utilidad: ¿aporta datos o ejemplos concretos?

Texto del artículo:
{{.Text}}
`

var defaultTemplate = template.Must(template.New("analyzer").Parse(defaultPrompt))

type promptData struct {
	Topic    string
	Text     string
	Year     int
	PrevYear int
}

type Analyzer struct {
	llm llm.Client
	now func() time.Time
}

func New(client llm.Client) *Analyzer {
	return &Analyzer{llm: client, now: time.Now}
}

// Judge never fails: any analysis error is logged and replaced by Sentinel.
func (a *Analyzer) Judge(ctx context.Context, in Input) Judgment {
	j, err := a.Analyze(ctx, in)
	if err != nil {
		logger.Log.Warnf("relevance analysis failed for topic %q: %v", in.Topic, err)
		return Sentinel()
	}
	return j
}

// Analyze asks the model for a judgment and validates it.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (Judgment, error) {
	prompt, err := a.buildPrompt(in)
	if err != nil {
		return Judgment{}, err
	}

	raw, err := a.llm.Generate(llm.WithCallInfo(ctx, PurposeRelevance, in.Topic), prompt)
	if err != nil {
		return Judgment{}, err
	}
	return ParseJudgment(raw)
}

func (a *Analyzer) buildPrompt(in Input) (string, error) {
	year := a.now().Year()
	data := promptData{
		Topic:    strings.TrimSpace(in.Topic),
		Text:     truncateRunes(strings.ToValidUTF8(in.Text, ""), maxTextRunes),
		Year:     year,
		PrevYear: year - 1,
	}

	tmpl := defaultTemplate
	if strings.TrimSpace(in.PromptTemplate) != "" {
		custom, err := template.New("analyzer_override").Parse(in.PromptTemplate)
		if err != nil {
			logger.Log.Warnf("invalid analyzer prompt override, using default: %v", err)
		} else {
			tmpl = custom
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render analyzer prompt: %w", err)
	}
	return buf.String(), nil
}

type rawJudgment struct {
	Score   json.RawMessage `json:"score"`
	Reason  string          `json:"reason"`
	Summary string          `json:"summary"`
	Resumen string          `json:"resumen"`
	Tags    []string        `json:"tags"`
}

// ParseJudgment extracts the greedy {...} from raw model output and normalizes it:
// the score is rounded and clamped to [1,10], the summary is capped and tags deduplicated.
func ParseJudgment(raw string) (Judgment, error) {
	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return Judgment{}, ErrNoJSON
	}

	var r rawJudgment
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		// 흔한 포맷 오류(trailing comma 등)는 한 번 정리 후 재시도
		if err2 := json.Unmarshal([]byte(llm.CleanJSON(obj)), &r); err2 != nil {
			return Judgment{}, fmt.Errorf("decode judgment: %w", err)
		}
	}

	score, err := parseScore(r.Score)
	if err != nil {
		return Judgment{}, err
	}

	summary := strings.TrimSpace(r.Summary)
	if summary == "" {
		summary = strings.TrimSpace(r.Resumen)
	}

	return Judgment{
		Score:   score,
		Reason:  strings.TrimSpace(r.Reason),
		Summary: truncateRunes(summary, maxSummaryRunes),
		Tags:    normalizeTags(r.Tags, maxTags),
	}, nil
}

func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, ErrInvalidScore
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, ErrInvalidScore
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, ErrInvalidScore
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidScore
	}

	f = math.Min(math.Max(math.Round(f), minScore), maxScore)
	return int(f), nil
}

func normalizeTags(tags []string, limit int) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
