package services

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedThumbnail(t *testing.T, dir, url string) []byte {
	t.Helper()
	name := url[strings.LastIndex(url, "/")+1:]
	data, err := os.ReadFile(filepath.Join(dir, DirThumbnails, name))
	require.NoError(t, err)
	return data
}

func TestNewCoverService_ProviderSelection(t *testing.T) {
	tests := []struct {
		cfg     config.AIConfig
		canDraw bool
	}{
		{config.AIConfig{Provider: "openai"}, false},
		{config.AIConfig{Provider: "openai", APIKey: "k"}, true},
		{config.AIConfig{Provider: "azure", APIKey: "k"}, true},
		{config.AIConfig{Provider: "gemini", APIKey: "k"}, true},
		{config.AIConfig{Provider: "anthropic", APIKey: "k"}, false},
		{config.AIConfig{Provider: "ollama"}, false},
	}
	for _, tt := range tests {
		cfg := tt.cfg
		svc := NewCoverService(&cfg, nil)
		assert.Equal(t, tt.canDraw, svc.generate != nil, cfg.Provider)
	}
}

func TestBuildCoverPrompt(t *testing.T) {
	prompt := buildCoverPrompt("Coral Bleaching", "Measuring temperature effects", "")
	assert.True(t, strings.HasPrefix(prompt, "Professional academic research illustration, coral bleaching"), prompt)
	assert.Contains(t, prompt, "focusing on coral, bleaching, measuring")
	assert.Contains(t, prompt, "no watermark")

	assert.Equal(t, "a red fish", buildCoverPrompt("Coral Bleaching", "", "  a red fish "))
}

func TestWrapWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Ocean Study", []string{"Ocean Study"}},
		{"Tracking plankton migration north", []string{"Tracking plankton", "migration north"}},
		{"Supercalifragilisticexpialidocious", []string{"Supercalifragilistic", "expialidocious"}},
		{"one two three four five six seven eight nine ten eleven twelve thirteen fourteen",
			[]string{"one two three four", "five six seven eight", "nine ten eleven", "twelve thirteen..."}},
		{"   ", nil},
	}
	for _, tt := range tests {
		got := wrapWords(tt.in, 20, 4)
		assert.Equal(t, tt.want, got, tt.in)
		for _, line := range got {
			assert.LessOrEqual(t, len([]rune(line)), 20, line)
		}
	}
}

func TestRenderPlaceholder(t *testing.T) {
	a := RenderPlaceholder("Ocean Study")
	assert.Equal(t, coverSize, a.Bounds().Dx())
	assert.Equal(t, coverSize, a.Bounds().Dy())
	assert.Equal(t, a.Pix, RenderPlaceholder("Ocean Study").Pix, "same title must render the same image")
	assert.NotEqual(t, a.Pix, RenderPlaceholder("Reef Survey").Pix)

	// blue-violet palette
	corner := a.RGBAAt(0, 0)
	assert.Greater(t, corner.B, corner.G)
	assert.Equal(t, uint8(255), corner.A)
}

func TestHSLToRGB(t *testing.T) {
	tests := []struct {
		h, s, l float64
		r, g, b uint8
	}{
		{0, 1, 0.5, 255, 0, 0},
		{120, 1, 0.5, 0, 255, 0},
		{240, 1, 0.5, 0, 0, 255},
		{0, 0, 1, 255, 255, 255},
		{0, 0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		c := hslToRGB(tt.h, tt.s, tt.l)
		assert.Equal(t, [3]uint8{tt.r, tt.g, tt.b}, [3]uint8{c.R, c.G, c.B}, "hsl(%v,%v,%v)", tt.h, tt.s, tt.l)
	}
}

func TestCoverService_PlaceholderWithoutProvider(t *testing.T) {
	uploads, dir := newTestUploadService(t, nil)
	svc := NewCoverService(&config.AIConfig{Provider: "openai"}, uploads)

	result, err := svc.Generate(context.Background(), &CoverRequest{Title: "Ocean Study"})
	require.NoError(t, err)
	assert.Equal(t, CoverSourcePlaceholder, result.Source)
	assert.True(t, strings.HasPrefix(result.ImageURL, "http://localhost:5000/uploads/thumbnails/placeholder-1700000000000-"), result.ImageURL)
	assert.True(t, strings.HasSuffix(result.ImageURL, ".png"))

	img, err := png.Decode(bytes.NewReader(storedThumbnail(t, dir, result.ImageURL)))
	require.NoError(t, err)
	assert.Equal(t, coverSize, img.Bounds().Dx())
}

func TestCoverService_StoresProviderImage(t *testing.T) {
	uploads, dir := newTestUploadService(t, nil)
	svc := NewCoverService(&config.AIConfig{Provider: "openai", APIKey: "k"}, uploads)
	generated := pngBytes(t, 8, 8)
	svc.generate = func(ctx context.Context, prompt string) ([]byte, error) {
		assert.Contains(t, prompt, "whale")
		return generated, nil
	}

	result, err := svc.Generate(context.Background(), &CoverRequest{Title: "Whale Song"})
	require.NoError(t, err)
	assert.Equal(t, "openai", result.Source)
	assert.Contains(t, result.ImageURL, "/uploads/thumbnails/ai-")
	assert.True(t, strings.HasSuffix(result.ImageURL, ".png"))
	assert.Equal(t, generated, storedThumbnail(t, dir, result.ImageURL))
}

func TestCoverService_FallsBackOnProviderTrouble(t *testing.T) {
	replies := map[string]func(ctx context.Context, prompt string) ([]byte, error){
		"error": func(ctx context.Context, prompt string) ([]byte, error) {
			return nil, errors.New("quota exceeded")
		},
		"not an image": func(ctx context.Context, prompt string) ([]byte, error) {
			return []byte("<html>oops</html>"), nil
		},
		"empty": func(ctx context.Context, prompt string) ([]byte, error) {
			return nil, nil
		},
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			uploads, _ := newTestUploadService(t, nil)
			svc := NewCoverService(&config.AIConfig{Provider: "gemini", APIKey: "k"}, uploads)
			svc.generate = reply

			result, err := svc.Generate(context.Background(), &CoverRequest{Title: "Reef"})
			require.NoError(t, err)
			assert.Equal(t, CoverSourcePlaceholder, result.Source)
		})
	}
}

func TestCoverService_TitleRequired(t *testing.T) {
	uploads, dir := newTestUploadService(t, nil)
	svc := NewCoverService(&config.AIConfig{}, uploads)

	_, err := svc.Generate(context.Background(), &CoverRequest{Title: "  "})
	requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)
	assert.Zero(t, countFiles(t, filepath.Join(dir, DirThumbnails)))
}
