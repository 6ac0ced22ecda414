package synthesizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/internal/fetcher"
	"content-pipeline/models"
)

type fakeSelector struct {
	sources  []models.SourceArticle
	err      error
	minScore int
	limit    int
}

func (f *fakeSelector) FindTopUnused(_ context.Context, minScore int, limit int) ([]models.SourceArticle, error) {
	f.minScore, f.limit = minScore, limit
	if f.err != nil {
		return nil, f.err
	}
	var out []models.SourceArticle
	for _, s := range f.sources {
		if s.RelevanceScore >= minScore && !s.UsedForGeneration {
			out = append(out, s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeFetcher map[string]string

func (f fakeFetcher) Fetch(_ context.Context, url string) (*fetcher.Page, error) {
	if text, ok := f[url]; ok {
		return &fetcher.Page{URL: url, Text: text}, nil
	}
	return nil, fetcher.ErrNoContent
}

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

const goodResponse = "```json\n" + `{
  "title": "Telescopios: guía completa",
  "meta_description": "Todo sobre telescopios.",
  "tags": ["telescopios", "astronomía", "Telescopios", ""],
  "body": "## Introducción\n\nTexto del artículo.",
}` + "\n```"

func sources() (primitive.ObjectID, primitive.ObjectID, []models.SourceArticle) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	return a, b, []models.SourceArticle{
		{ID: a, URL: "https://a.com/1", Title: "Fuente A", RelevanceScore: 9},
		{ID: b, URL: "https://b.com/1", Title: "Fuente B", RelevanceScore: 8},
		{ID: primitive.NewObjectID(), URL: "https://c.com/1", RelevanceScore: 7},
		{ID: primitive.NewObjectID(), URL: "https://low.com/1", RelevanceScore: 4},
		{ID: primitive.NewObjectID(), URL: "https://used.com/1", RelevanceScore: 10, UsedForGeneration: true},
	}
}

func TestSynthesizeUsesOnlyContributingSources(t *testing.T) {
	a, _, srcs := sources()
	sel := &fakeSelector{sources: srcs}
	// b.com is selected but cannot be re-fetched
	f := fakeFetcher{"https://a.com/1": "texto A", "https://c.com/1": "texto C"}
	client := &fakeLLM{response: goodResponse}

	s := New(sel, f, client)
	draft, err := s.Synthesize(context.Background(), "telescopios", Options{NumSources: 3, MinScore: 7, Length: "long", Tone: "divulgativo"})
	require.NoError(t, err)

	assert.Equal(t, 7, sel.minScore)
	assert.Equal(t, 3, sel.limit)

	assert.Equal(t, "telescopios", draft.Topic)
	assert.Equal(t, "Telescopios: guía completa", draft.Title)
	assert.Equal(t, "## Introducción\n\nTexto del artículo.", draft.Body)
	assert.Equal(t, []string{"telescopios", "astronomía"}, draft.Tags)
	assert.InDelta(t, 8.0, draft.AverageSourceScore, 0.0001)
	require.Len(t, draft.SourceIDsUsed, 2)
	assert.Equal(t, a, draft.SourceIDsUsed[0])

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "### Fuente 1: Fuente A\n\ntexto A\n\n---\n\n")
	assert.Contains(t, prompt, "### Fuente 2: https://c.com/1\n\ntexto C")
	assert.NotContains(t, prompt, "Fuente B")
	assert.Contains(t, prompt, "al menos 2500 palabras")
	assert.Contains(t, prompt, "Tono: divulgativo")

	article := draft.Article()
	assert.Equal(t, models.ArticleStateGenerated, article.State)
	assert.Equal(t, draft.SourceIDsUsed, article.SourceIDsUsed)
}

func TestSynthesizeRequiresQualifyingSources(t *testing.T) {
	_, _, srcs := sources()
	client := &fakeLLM{response: goodResponse}

	for _, n := range []int{1, 3, 50} {
		s := New(&fakeSelector{sources: srcs}, fakeFetcher{}, client)
		_, err := s.Synthesize(context.Background(), "telescopios", Options{NumSources: n, MinScore: 11})
		assert.ErrorIs(t, err, ErrNoSources)
	}
	assert.Empty(t, client.prompts)
}

func TestSynthesizeNoFetchableContent(t *testing.T) {
	_, _, srcs := sources()
	client := &fakeLLM{response: goodResponse}
	s := New(&fakeSelector{sources: srcs}, fakeFetcher{}, client)

	_, err := s.Synthesize(context.Background(), "telescopios", Options{NumSources: 3, MinScore: 7})
	assert.ErrorIs(t, err, ErrNoSourceContent)
	assert.ErrorIs(t, err, ErrNoSources)
	assert.Empty(t, client.prompts)
}

func TestSynthesizeFailures(t *testing.T) {
	_, _, srcs := sources()
	f := fakeFetcher{"https://a.com/1": "texto A"}

	cases := map[string]*fakeLLM{
		"model error":  {err: errors.New("quota")},
		"no json":      {response: "lo siento"},
		"missing key":  {response: `{"title": "t", "meta_description": "m", "body": "b"}`},
		"empty title":  {response: `{"title": " ", "meta_description": "m", "tags": [], "body": "b"}`},
		"empty body":   {response: `{"title": "t", "meta_description": "m", "tags": [], "body": ""}`},
		"broken json":  {response: `{"title": "t", "body": }`},
		"wrong types":  {response: `{"title": 3, "meta_description": "m", "tags": [], "body": "b"}`},
	}
	for name, client := range cases {
		t.Run(name, func(t *testing.T) {
			s := New(&fakeSelector{sources: srcs}, f, client)
			_, err := s.Synthesize(context.Background(), "telescopios", Options{NumSources: 1, MinScore: 7})
			assert.ErrorIs(t, err, ErrSynthesisFailed)
			assert.NotErrorIs(t, err, ErrNoSources)
		})
	}
}

func TestSynthesizeSelectionError(t *testing.T) {
	s := New(&fakeSelector{err: errors.New("mongo down")}, fakeFetcher{}, &fakeLLM{})
	_, err := s.Synthesize(context.Background(), "telescopios", Options{NumSources: 1, MinScore: 7})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSources)
}

func TestParseResponseRepairsOutput(t *testing.T) {
	raw := "Claro:\n{\"title\": \"T\",\n \"meta_description\": \"M\",\n \"tags\": \"uno, dos, uno\",\n \"body\": \"línea\x01 uno\nlínea dos\",\n}\nGracias"

	r, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "T", r.Title)
	assert.Equal(t, []string{"uno", "dos"}, r.Tags)
	assert.Equal(t, "línea uno línea dos", r.Body)
}

func TestParseResponseKeepsValidBodyVerbatim(t *testing.T) {
	raw := "```json\n" + `{"title": "T", "meta_description": "M", "tags": ["uno"], ` +
		`"body": "## Datos\n\nLista:  [a, b,  ]\n\n` + "```go\\nx := 1\\n```" + `\n- uno,   }"}` + "\n```"

	r, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "## Datos\n\nLista:  [a, b,  ]\n\n```go\nx := 1\n```\n- uno,   }", r.Body)
}

func TestMinWords(t *testing.T) {
	assert.Equal(t, 800, MinWords("short"))
	assert.Equal(t, 1500, MinWords("medium"))
	assert.Equal(t, 2500, MinWords(" LONG "))
	assert.Equal(t, 1500, MinWords("unknown"))
}

func TestPromptOverride(t *testing.T) {
	_, _, srcs := sources()
	client := &fakeLLM{response: goodResponse}
	s := New(&fakeSelector{sources: srcs}, fakeFetcher{"https://a.com/1": "texto A"}, client)

	_, err := s.Synthesize(context.Background(), "telescopios", Options{
		NumSources:     1,
		MinScore:       9,
		PromptTemplate: "{{.Topic}}|{{.SourceCount}}|{{.MinWords}}",
	})
	require.NoError(t, err)
	assert.Equal(t, "telescopios|1|1500", client.prompts[0])
}
