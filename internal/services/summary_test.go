package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicSummary(t *testing.T) {
	req := &SummaryRequest{
		Title:       "Reef",
		Description: "Coral bleaching. Measuring temperature effects on coral reefs in shallow water",
		Media: []SummaryMedia{
			{Filename: "a.jpg", Type: "image"},
			{Filename: "b.jpg", Type: "image"},
			{Filename: "c.mp4", Type: "video"},
		},
	}

	summary := HeuristicSummary(req)
	assert.True(t, strings.HasPrefix(summary, "Reef | Key focus: coral, bleaching, measuring"), summary)
	assert.LessOrEqual(t, utf8.RuneCountInString(summary), maxSummaryLen)
	assert.Equal(t, summary, HeuristicSummary(req), "summary must be deterministic")
}

func TestHeuristicSummary_TitleOnly(t *testing.T) {
	summary := HeuristicSummary(&SummaryRequest{Title: "Tiny"})
	assert.True(t, strings.HasPrefix(summary, "Tiny | "), summary)
	assert.NotContains(t, summary, "Key focus")
	assert.NotContains(t, summary, "Resources")
}

func TestHeuristicSummary_Capped(t *testing.T) {
	summary := HeuristicSummary(&SummaryRequest{
		Title:       strings.Repeat("Long title ", 20),
		Description: strings.Repeat("elaborate description sentence ", 20),
	})
	assert.LessOrEqual(t, utf8.RuneCountInString(summary), maxSummaryLen)
	assert.Greater(t, utf8.RuneCountInString(summary), maxSummaryLen-5)
	assert.True(t, strings.HasSuffix(summary, "..."))
}

func TestMediaCounts(t *testing.T) {
	assert.Equal(t, "", mediaCounts(nil))
	assert.Equal(t, "2 image, 1 doc", mediaCounts([]SummaryMedia{{Type: "doc"}, {Type: "image"}, {Type: "image"}}))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "abcd...", truncateRunes("abcdefghij", 7))
	assert.Equal(t, "ééé...", truncateRunes("éééééééé", 6))
}

func TestSummaryService_ProviderSelection(t *testing.T) {
	tests := []struct {
		name   string
		cfg    *config.AIConfig
		usable bool
	}{
		{"nil config", nil, false},
		{"openai without key", &config.AIConfig{Provider: "openai"}, false},
		{"openai with key", &config.AIConfig{Provider: "openai", APIKey: "sk"}, true},
		{"ollama without key", &config.AIConfig{Provider: "ollama"}, true},
		{"heuristic", &config.AIConfig{Provider: "heuristic", APIKey: "sk"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSummaryService(tt.cfg, nil)
			assert.Equal(t, tt.usable, svc.complete != nil)
		})
	}
}

func TestSummaryService_Generate(t *testing.T) {
	svc := NewSummaryService(&config.AIConfig{Provider: "openai"}, nil)

	_, err := svc.Generate(context.Background(), &SummaryRequest{Title: "  "})
	requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)

	result, err := svc.Generate(context.Background(), &SummaryRequest{Title: "Ocean Study"})
	require.NoError(t, err)
	assert.Equal(t, SummarySourceHeuristic, result.Source)

	svc.complete = func(ctx context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "Ocean Study")
		return "\"A study of ocean currents.\"\nextra line", nil
	}
	result, err = svc.Generate(context.Background(), &SummaryRequest{Title: "Ocean Study"})
	require.NoError(t, err)
	assert.Equal(t, "openai", result.Source)
	assert.Equal(t, "A study of ocean currents.", result.Summary)

	svc.complete = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("rate limited")
	}
	result, err = svc.Generate(context.Background(), &SummaryRequest{Title: "Ocean Study"})
	require.NoError(t, err)
	assert.Equal(t, SummarySourceHeuristic, result.Source)
}

func TestSummaryService_ForProject(t *testing.T) {
	db := setupTestDB(t)
	projects := NewProjectService(db)
	project, err := projects.Create(&CreateProjectRequest{Title: "Fish & Chips", Description: "Studying fried seafood economics."})
	require.NoError(t, err)
	_, err = projects.AddMedia(project.ID, &AddMediaRequest{Type: models.MediaTypeDoc, URL: "/u/a.pdf", Filename: "a.pdf"})
	require.NoError(t, err)

	svc := NewSummaryService(&config.AIConfig{}, projects)
	result, err := svc.ForProject(context.Background(), project.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Summary, "Fish & Chips | "), result.Summary)
	assert.Contains(t, result.Summary, "Resources: 1 doc")

	_, err = svc.ForProject(context.Background(), project.ID+1)
	requireAppError(t, err, http.StatusNotFound, response.CodeNotFound)
}

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A study.", "A study."},
		{"  \"A study.\"  ", "A study."},
		{"\"A study.\"\nextra", "A study."},
		{"\"A study.\"\r\nextra", "A study."},
		{"\n\n  A study.  \nmore", "A study."},
		{"“Curly quoted.”", "Curly quoted."},
		{"\"\"", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanSummary(tt.in), "%q", tt.in)
	}
}
