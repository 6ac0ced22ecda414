package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/cmd/api/services"
	"content-pipeline/cmd/internal/pipeline"
	"content-pipeline/cmd/internal/synthesizer"
	"content-pipeline/cmd/internal/themes"
	"content-pipeline/config"
	"content-pipeline/models"
	"content-pipeline/repositories"
)

type fakeRunner struct {
	res *pipeline.Result
	err error
}

func (f fakeRunner) Run(context.Context, string) (*pipeline.Result, error) { return f.res, f.err }

type fakeQueue struct{ topics []string }

func (f *fakeQueue) Enqueue(_ context.Context, topic string, _ *primitive.ObjectID) (*models.GenerationTask, error) {
	f.topics = append(f.topics, topic)
	return &models.GenerationTask{ID: primitive.NewObjectID(), Topic: topic, State: models.TaskStatePending}, nil
}

type fakeTasks struct{ byID map[primitive.ObjectID]models.GenerationTask }

func (f fakeTasks) GetByID(_ context.Context, id primitive.ObjectID) (*models.GenerationTask, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrTaskNotFound
	}
	return &t, nil
}

func (f fakeTasks) List(context.Context, repositories.ListTasksOptions) ([]models.GenerationTask, int64, error) {
	out := make([]models.GenerationTask, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

type fakeArticles struct {
	byID    map[primitive.ObjectID]*models.GeneratedArticle
	lastOpt repositories.ListArticlesOptions
}

func (f *fakeArticles) GetByID(_ context.Context, id primitive.ObjectID) (*models.GeneratedArticle, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrArticleNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticles) Update(_ context.Context, id primitive.ObjectID, u models.ArticleUpdate) error {
	a, ok := f.byID[id]
	if !ok {
		return repositories.ErrArticleNotFound
	}
	if u.Title != nil {
		a.Title = *u.Title
	}
	if u.State != nil {
		a.State = *u.State
	}
	return nil
}

func (f *fakeArticles) List(_ context.Context, opt repositories.ListArticlesOptions) ([]models.GeneratedArticle, int64, error) {
	f.lastOpt = opt
	var out []models.GeneratedArticle
	for _, a := range f.byID {
		if opt.Topic != "" && a.Topic != opt.Topic {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

type fakeImages struct{}

func (fakeImages) ListByArticle(_ context.Context, id primitive.ObjectID) ([]models.ImageAttachment, error) {
	return []models.ImageAttachment{{ArticleID: id, URL: "https://img/1", Author: "Ana"}}, nil
}

type fakePreview struct{}

func (fakePreview) Render(a *models.GeneratedArticle, _ []models.ImageAttachment) ([]byte, error) {
	return []byte("<h1>" + a.Title + "</h1>"), nil
}

type memoryThemes struct {
	stored map[string]*models.ThemeConfig
}

func (m *memoryThemes) GetByTopic(_ context.Context, topic string) (*models.ThemeConfig, error) {
	return m.stored[topic], nil
}

func (m *memoryThemes) GetByID(context.Context, primitive.ObjectID) (*models.ThemeConfig, error) {
	return nil, repositories.ErrConfigNotFound
}

func (m *memoryThemes) Upsert(_ context.Context, c *models.ThemeConfig) (primitive.ObjectID, error) {
	c.ID = primitive.NewObjectID()
	cp := *c
	m.stored[c.Topic] = &cp
	return c.ID, nil
}

func (m *memoryThemes) ListTopics(context.Context) ([]string, error) {
	var out []string
	for t := range m.stored {
		out = append(out, t)
	}
	return out, nil
}

type testServer struct {
	engine   *gin.Engine
	articles *fakeArticles
	queue    *fakeQueue
	runner   *fakeRunner
	article  primitive.ObjectID
	task     primitive.ObjectID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	articleID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()
	ts := &testServer{
		articles: &fakeArticles{byID: map[primitive.ObjectID]*models.GeneratedArticle{
			articleID: {ID: articleID, Topic: "astronomía", Title: "Lunas", State: models.ArticleStateGenerated},
		}},
		queue:   &fakeQueue{},
		runner:  &fakeRunner{},
		article: articleID,
		task:    taskID,
	}
	tasks := fakeTasks{byID: map[primitive.ObjectID]models.GenerationTask{
		taskID: {ID: taskID, Topic: "astronomía", State: models.TaskStatePending},
	}}

	gen := services.NewGenerationService(ts.runner, ts.queue, tasks, 0)
	arts := services.NewArticleService(ts.articles, fakeImages{}, fakePreview{})
	defaults := config.Default().ThemeDefaults
	cfgs := services.NewConfigService(themes.NewResolver(&memoryThemes{stored: map[string]*models.ThemeConfig{}}, defaults))

	r := gin.New()
	r.POST("/generate", GenerateHandler(gen))
	r.POST("/dashboard/generate-article", EnqueueGenerationHandler(gen))
	r.GET("/dashboard/generation-tasks", ListGenerationTasksHandler(gen))
	r.GET("/dashboard/generation-tasks/:id", GetGenerationTaskHandler(gen))
	r.GET("/articles", ListArticlesHandler(arts))
	r.GET("/articles/:id", GetArticleHandler(arts))
	r.PUT("/articles/:id", UpdateArticleHandler(arts))
	r.GET("/articles/:id/preview", PreviewArticleHandler(arts))
	r.GET("/config/:topic", GetConfigHandler(cfgs))
	r.PUT("/config/:topic", PutConfigHandler(cfgs))
	r.GET("/topics", ListTopicsHandler(cfgs))
	ts.engine = r
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func TestGenerateHandler(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing topic", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/generate", "").Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/generate", `{"topic":"  "}`).Code)
	})

	t.Run("success", func(t *testing.T) {
		id := primitive.NewObjectID()
		ts.runner.res = &pipeline.Result{ArticleID: id, States: []pipeline.State{pipeline.StateDiscovering, pipeline.StateDone}}
		ts.runner.err = nil

		w := ts.do(http.MethodPost, "/generate", `{"topic":"astronomía"}`)
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.GenerateResponseDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, id.Hex(), resp.ArticleID)
		assert.Equal(t, []string{"DISCOVERING", "DONE"}, resp.States)
	})

	t.Run("no sources", func(t *testing.T) {
		ts.runner.res = nil
		ts.runner.err = &pipeline.AbortError{
			State:  pipeline.StateSynthesizing,
			Reason: pipeline.ReasonSynthesisFailed,
			Err:    synthesizer.ErrNoSources,
		}

		w := ts.do(http.MethodPost, "/generate", `{"topic":"astronomía"}`)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		var resp dto.PipelineErrorDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "no sources found", resp.Error)
		assert.Equal(t, "SYNTHESIZING", resp.Stage)
		assert.Equal(t, "synthesis failed", resp.Reason)
	})

	t.Run("persist failure", func(t *testing.T) {
		ts.runner.err = &pipeline.AbortError{
			State:  pipeline.StatePersistingArticle,
			Reason: pipeline.ReasonPersistFailed,
			Err:    errors.Join(pipeline.ErrPersistFailed, errors.New("mongo down")),
		}
		w := ts.do(http.MethodPost, "/generate", `{"topic":"astronomía"}`)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "persist failed")
	})
}

func TestArticleHandlers(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/articles/"+ts.article.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail dto.ArticleDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Lunas", detail.Title)
	require.Len(t, detail.Images, 1)
	assert.Equal(t, "Ana", detail.Images[0].Author)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/articles/not-an-id", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/articles/"+primitive.NewObjectID().Hex(), "").Code)

	w = ts.do(http.MethodGet, "/articles?topic=astronom%C3%ADa", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page dto.Pagination[dto.ArticleDTO]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Total)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/articles?state=draft", "").Code)

	w = ts.do(http.MethodGet, "/articles/"+ts.article.Hex()+"/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h1>Lunas</h1>")
}

func TestUpdateArticleHandler(t *testing.T) {
	ts := newTestServer(t)
	path := "/articles/" + ts.article.Hex()

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPut, path, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPut, path, `{"state":"draft"}`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPut, "/articles/"+primitive.NewObjectID().Hex(), `{"title":"x"}`).Code)

	w := ts.do(http.MethodPut, path, `{"title":"Nuevas lunas","state":"reviewed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.ArticleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Nuevas lunas", got.Title)
	assert.Equal(t, "reviewed", got.State)
	assert.Equal(t, "astronomía", got.Topic)
}

func TestConfigHandlers(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/config/biolog%C3%ADa", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cfg dto.ThemeConfigDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.False(t, cfg.Stored)
	assert.Equal(t, 5, cfg.MinSourceScore)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPut, "/config/biolog%C3%ADa", `{"topic":"otra"}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPut, "/config/biolog%C3%ADa", `{"text_length":"huge"}`).Code)

	w = ts.do(http.MethodPut, "/config/biolog%C3%ADa", `{"min_source_score":6,"text_length":"long"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.True(t, cfg.Stored)
	assert.Equal(t, 6, cfg.MinSourceScore)
	assert.Equal(t, "long", cfg.TextLength)
	assert.Equal(t, 7, cfg.MinGeneratorScore)

	w = ts.do(http.MethodGet, "/topics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "biología")
}

func TestGenerationTaskHandlers(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/dashboard/generate-article", `{"topic":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/dashboard/generate-article", `{"topic":"x","configuration_id":"bad"}`).Code)

	w := ts.do(http.MethodPost, "/dashboard/generate-article", `{"topic":"astronomía"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var enq dto.EnqueueResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enq))
	assert.NotEmpty(t, enq.TaskID)
	assert.Equal(t, []string{"astronomía"}, ts.queue.topics)

	w = ts.do(http.MethodGet, "/dashboard/generation-tasks/"+ts.task.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"pending"`)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/dashboard/generation-tasks/"+primitive.NewObjectID().Hex(), "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/dashboard/generation-tasks?state=done", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/dashboard/generation-tasks?state=pending", "").Code)
}

func TestListHandlersReportEffectivePaging(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/articles?page=0&page_size=500", "")
	require.Equal(t, http.StatusOK, w.Code)
	var articles dto.Pagination[dto.ArticleDTO]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &articles))
	assert.Equal(t, 1, articles.Page)
	assert.Equal(t, repositories.DefaultPageSize, articles.PageSize)
	assert.Equal(t, articles.Page, ts.articles.lastOpt.Page)
	assert.Equal(t, articles.PageSize, ts.articles.lastOpt.PageSize)

	w = ts.do(http.MethodGet, "/articles?page=3&page_size=50", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &articles))
	assert.Equal(t, 3, articles.Page)
	assert.Equal(t, 50, articles.PageSize)

	w = ts.do(http.MethodGet, "/dashboard/generation-tasks?page=-2&page_size=101", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tasks dto.Pagination[dto.TaskDTO]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Equal(t, 1, tasks.Page)
	assert.Equal(t, repositories.DefaultPageSize, tasks.PageSize)
}

func TestConfigHandlersZeroImages(t *testing.T) {
	ts := newTestServer(t)
	var cfg dto.ThemeConfigDTO

	w := ts.do(http.MethodPut, "/config/cocina", `{"num_images":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, 0, cfg.NumImages)

	w = ts.do(http.MethodGet, "/config/cocina", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.True(t, cfg.Stored)
	assert.Equal(t, 0, cfg.NumImages)

	w = ts.do(http.MethodPut, "/config/cocina", `{"text_tone":"cercano"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, 2, cfg.NumImages)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPut, "/config/cocina", `{"num_images":-1}`).Code)
}
