package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/internal/discovery"
	"content-pipeline/cmd/internal/images"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/cmd/internal/synthesizer"
	"content-pipeline/models"
)

const maxImageQueryRunes = 150

type Discoverer interface {
	Discover(ctx context.Context, topic string, opts discovery.Options) ([]models.SourceArticle, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, topic string, opts synthesizer.Options) (*synthesizer.Draft, error)
}

type SourceStore interface {
	InsertIfAbsent(ctx context.Context, s *models.SourceArticle) (primitive.ObjectID, bool, error)
	MarkUsed(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type ArticleStore interface {
	Insert(ctx context.Context, a *models.GeneratedArticle) (primitive.ObjectID, error)
}

type ImageStore interface {
	Insert(ctx context.Context, img *models.ImageAttachment) (primitive.ObjectID, error)
}

type ConfigResolver interface {
	Resolve(ctx context.Context, topic string) (models.ThemeConfig, bool, error)
}

type PreviewWriter interface {
	WriteFile(article *models.GeneratedArticle, imgs []models.ImageAttachment) (string, error)
}

// Deps are the collaborators of a run. Finder and Preview are optional.
type Deps struct {
	Discoverer  Discoverer
	Synthesizer Synthesizer
	Sources     SourceStore
	Articles    ArticleStore
	Images      ImageStore
	Configs     ConfigResolver
	Finder      images.Finder
	Preview     PreviewWriter
}

// Result describes a finished run.
type Result struct {
	Topic       string
	ArticleID   primitive.ObjectID
	Article     *models.GeneratedArticle
	Images      []models.ImageAttachment
	NewSources  int
	MarkedUsed  int
	PreviewPath string
	States      []State
}

type Orchestrator struct {
	deps         Deps
	locks        *keyedMutex
	onTransition func(State)
}

func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps, locks: newKeyedMutex()}
}

// OnTransition registers fn to be called on every state entered, including ABORTED.
func (o *Orchestrator) OnTransition(fn func(State)) {
	o.onTransition = fn
}

// Run resolves the topic configuration and runs the pipeline with it.
func (o *Orchestrator) Run(ctx context.Context, topic string) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	cfg, _, err := o.deps.Configs.Resolve(ctx, topic)
	if err != nil {
		return nil, err
	}
	return o.RunWithConfig(ctx, cfg)
}

// RunWithConfig runs discovery, synthesis and publication for cfg.Topic.
// Runs for the same topic in this process are serialized.
func (o *Orchestrator) RunWithConfig(ctx context.Context, cfg models.ThemeConfig) (*Result, error) {
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	unlock := o.locks.Lock(topic)
	defer unlock()

	res := &Result{Topic: topic}

	// DISCOVERING: zero new sources is not fatal, older unused ones may still qualify.
	o.enter(res, StateDiscovering)
	found, err := o.deps.Discoverer.Discover(ctx, topic, discovery.Options{
		MaxCandidates:  cfg.NumSearchResults,
		MaxToFetch:     cfg.NumDiscoveryResults,
		ScoreThreshold: cfg.MinSourceScore,
		AnalyzerPrompt: cfg.AnalyzerPrompt,
	})
	if err != nil {
		return nil, err
	}
	res.NewSources = o.persistSources(ctx, topic, found)

	o.enter(res, StateSynthesizing)
	draft, err := o.deps.Synthesizer.Synthesize(ctx, topic, synthesizer.Options{
		NumSources:     cfg.NumGeneratorSources,
		MinScore:       cfg.MinGeneratorScore,
		Length:         cfg.TextLength,
		Tone:           cfg.TextTone,
		PromptTemplate: cfg.GeneratorPrompt,
	})
	if err != nil {
		return res, o.abort(res, StateSynthesizing, ReasonSynthesisFailed, err)
	}
	if draft == nil {
		return res, o.abort(res, StateSynthesizing, ReasonSynthesisFailed, synthesizer.ErrSynthesisFailed)
	}

	o.enter(res, StatePersistingArticle)
	article := draft.Article()
	id, err := o.deps.Articles.Insert(ctx, article)
	if err != nil {
		return res, o.abort(res, StatePersistingArticle, ReasonPersistFailed, fmt.Errorf("%w: %w", ErrPersistFailed, err))
	}
	if id.IsZero() {
		return res, o.abort(res, StatePersistingArticle, ReasonPersistFailed, ErrPersistFailed)
	}
	article.ID = id
	res.ArticleID = id
	res.Article = article

	// 여기부터는 article id 가 있어야만 진행된다. 실패는 로그만 남긴다.
	o.enter(res, StateAttachingImages)
	res.Images = o.attachImages(ctx, article, cfg.ImageCount())

	o.enter(res, StateMarkingSourcesUsed)
	res.MarkedUsed = o.markUsed(ctx, draft.SourceIDsUsed)

	o.enter(res, StateRenderingPreview)
	if o.deps.Preview != nil {
		path, err := o.deps.Preview.WriteFile(article, res.Images)
		if err != nil {
			logger.Log.Warnf("preview rendering failed for article %s: %v", id.Hex(), err)
		} else {
			res.PreviewPath = path
		}
	}

	o.enter(res, StateDone)
	logger.InfoWithFields("pipeline run finished", logger.Fields{
		"topic":       topic,
		"article_id":  id.Hex(),
		"new_sources": res.NewSources,
		"images":      len(res.Images),
		"marked_used": res.MarkedUsed,
	})
	return res, nil
}

func (o *Orchestrator) persistSources(ctx context.Context, topic string, found []models.SourceArticle) int {
	inserted := 0
	for i := range found {
		src := found[i]
		_, created, err := o.deps.Sources.InsertIfAbsent(ctx, &src)
		if err != nil {
			logger.Log.Warnf("could not store source %s: %v", src.URL, err)
			continue
		}
		if created {
			inserted++
		}
	}
	logger.InfoWithFields("discovery finished", logger.Fields{
		"topic":       topic,
		"found":       len(found),
		"new_sources": inserted,
	})
	return inserted
}

func (o *Orchestrator) attachImages(ctx context.Context, article *models.GeneratedArticle, n int) []models.ImageAttachment {
	attached := []models.ImageAttachment{}
	if o.deps.Finder == nil || n <= 0 {
		return attached
	}

	query := BuildImageQuery(article.Title, article.Tags)
	found, err := o.deps.Finder.Search(ctx, query, n)
	if err != nil {
		logger.Log.Warnf("image search failed for %q: %v", query, err)
		return attached
	}

	for _, img := range found {
		att := models.ImageAttachment{
			ArticleID:     article.ID,
			URL:           img.URL,
			AltText:       img.AltText,
			Caption:       img.Caption,
			License:       img.License,
			Author:        img.Author,
			AuthorURL:     img.AuthorURL,
			SourcePageURL: img.SourcePageURL,
		}
		if _, err := o.deps.Images.Insert(ctx, &att); err != nil {
			logger.Log.Warnf("could not store image %s for article %s: %v", img.URL, article.ID.Hex(), err)
			continue
		}
		attached = append(attached, att)
	}
	return attached
}

func (o *Orchestrator) markUsed(ctx context.Context, ids []primitive.ObjectID) int {
	marked := 0
	for _, id := range ids {
		changed, err := o.deps.Sources.MarkUsed(ctx, id)
		if err != nil {
			logger.Log.Warnf("could not mark source %s as used: %v", id.Hex(), err)
			continue
		}
		if !changed {
			logger.Log.Debugf("source %s was already marked as used", id.Hex())
			continue
		}
		marked++
	}
	return marked
}

func (o *Orchestrator) enter(res *Result, s State) {
	res.States = append(res.States, s)
	logger.DebugWithFields("pipeline state", logger.Fields{
		"topic":      res.Topic,
		"state":      string(s),
		"article_id": articleIDField(res.ArticleID),
	})
	if o.onTransition != nil {
		o.onTransition(s)
	}
}

func (o *Orchestrator) abort(res *Result, at State, reason string, err error) error {
	o.enter(res, StateAborted)
	abortErr := &AbortError{State: at, Reason: reason, Err: err}
	logger.ErrorWithFields("pipeline aborted", logger.Fields{
		"topic":  res.Topic,
		"state":  string(at),
		"reason": reason,
		"error":  err.Error(),
	})
	return abortErr
}

func articleIDField(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}

// BuildImageQuery is the title followed by the space-joined tags, capped at 150 runes.
func BuildImageQuery(title string, tags []string) string {
	q := strings.TrimSpace(strings.TrimSpace(title) + " " + strings.Join(tags, " "))
	if utf8.RuneCountInString(q) > maxImageQueryRunes {
		q = string([]rune(q)[:maxImageQueryRunes])
	}
	return strings.TrimSpace(q)
}
