package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/internal/pipeline"
	"content-pipeline/cmd/internal/synthesizer"
	"content-pipeline/models"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "enqueue", "sources", "config"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRunRequiresTopic(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestSourcesRejectsConflictingFilters(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"sources", "--used", "--unused"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestPrintRunResultDone(t *testing.T) {
	var buf bytes.Buffer
	id := primitive.NewObjectID()
	err := printRunResult(&buf, &pipeline.Result{
		ArticleID:   id,
		Article:     &models.GeneratedArticle{Title: "Paneles solares"},
		NewSources:  4,
		MarkedUsed:  3,
		Images:      []models.ImageAttachment{{URL: "https://img"}},
		PreviewPath: "out/p.html",
	}, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, id.Hex())
	assert.Contains(t, out, "Paneles solares")
	assert.Contains(t, out, "marked used:  3")
	assert.Contains(t, out, "out/p.html")
}

func TestPrintRunResultAbort(t *testing.T) {
	var buf bytes.Buffer
	abort := &pipeline.AbortError{
		State:  pipeline.StateSynthesizing,
		Reason: pipeline.ReasonSynthesisFailed,
		Err:    synthesizer.ErrNoSources,
	}
	err := printRunResult(&buf, nil, abort)
	assert.ErrorIs(t, err, synthesizer.ErrNoSources)
	assert.Equal(t, "aborted in SYNTHESIZING: no sources found\n", buf.String())
}

func TestPrintRunResultPlainError(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	assert.Equal(t, boom, printRunResult(&buf, nil, boom))
	assert.Empty(t, buf.String())
}

func TestPrintSources(t *testing.T) {
	var buf bytes.Buffer
	printSources(&buf, []models.SourceArticle{
		{RelevanceScore: 9, OriginDomain: "nasa.gov", Title: "Eclipse"},
		{RelevanceScore: 7, UsedForGeneration: true, OriginDomain: "esa.int", Title: "Cometa"},
	}, 10)

	out := buf.String()
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "nasa.gov")
	assert.Contains(t, out, "Cometa")
	assert.Contains(t, out, "2 of 10 sources")
}
