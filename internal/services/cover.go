package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/pkg/logger"
	"github.com/sashabaranov/go-openai"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"google.golang.org/genai"
)

const (
	coverSize       = 512
	coverTimeout    = 60 * time.Second
	coverTextScale  = 3
	coverLineChars  = 20
	coverMaxLines   = 4
	coverBubbles    = 14
	coverStyleHints = "clean scientific diagram style, modern minimalist design, subtle blue and white color scheme, " +
		"professional, educational, research poster aesthetic, detailed illustration, no text, no watermark"

	CoverSourcePlaceholder = "placeholder"
)

type CoverRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	Description  string `json:"description"`
	CustomPrompt string `json:"custom_prompt" binding:"max=1000"`
}

type CoverResult struct {
	ImageURL string `json:"image_url"`
	Source   string `json:"source"` // provider name or "placeholder"
}

type imageFunc func(ctx context.Context, prompt string) ([]byte, error)

// CoverService produces a project cover image. Images come from the
// configured provider when it can draw; otherwise a placeholder is rendered
// locally from the title.
type CoverService struct {
	cfg      *config.AIConfig
	uploads  *UploadService
	generate imageFunc
}

func NewCoverService(cfg *config.AIConfig, uploads *UploadService) *CoverService {
	s := &CoverService{cfg: cfg, uploads: uploads}
	if cfg != nil && cfg.APIKey != "" {
		switch cfg.Provider {
		case "openai", "azure":
			s.generate = s.openAIImage
		case "gemini":
			s.generate = s.geminiImage
		}
	}
	return s
}

func (s *CoverService) Generate(ctx context.Context, req *CoverRequest) (*CoverResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newTitleRequired()
	}

	if s.generate != nil {
		genCtx, cancel := context.WithTimeout(ctx, coverTimeout)
		data, err := s.generate(genCtx, buildCoverPrompt(title, req.Description, req.CustomPrompt))
		cancel()
		if err == nil {
			var url string
			url, err = s.storeGenerated(data)
			if err == nil {
				return &CoverResult{ImageURL: url, Source: s.cfg.Provider}, nil
			}
		}
		logger.Warn().Err(err).Str("provider", s.cfg.Provider).Msg("[AI] cover generation failed, drawing placeholder")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, RenderPlaceholder(title)); err != nil {
		return nil, passThrough(err, "failed to render cover image")
	}
	url, err := s.uploads.StoreThumbnail(CoverSourcePlaceholder, ".png", buf.Bytes())
	if err != nil {
		return nil, err
	}
	return &CoverResult{ImageURL: url, Source: CoverSourcePlaceholder}, nil
}

func (s *CoverService) storeGenerated(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("provider returned no image")
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("provider returned %s, not an image", mt.String())
	}
	return s.uploads.StoreThumbnail("ai", mt.Extension(), data)
}

// buildCoverPrompt prefers the caller's own prompt.
func buildCoverPrompt(title, description, custom string) string {
	if custom = strings.TrimSpace(custom); custom != "" {
		return custom
	}
	prompt := "Professional academic research illustration, " + strings.ToLower(title)
	if terms := keyTerms(title+" "+description, 3); len(terms) > 0 {
		prompt += ", focusing on " + strings.Join(terms, ", ")
	}
	return prompt + ", " + coverStyleHints
}

func (s *CoverService) imageModel(fallback string) string {
	if s.cfg.ImageModel != "" {
		return s.cfg.ImageModel
	}
	return fallback
}

func (s *CoverService) openAIImage(ctx context.Context, prompt string) ([]byte, error) {
	var clientConfig openai.ClientConfig
	if s.cfg.Provider == "azure" {
		clientConfig = openai.DefaultAzureConfig(s.cfg.APIKey, s.cfg.BaseURL)
	} else {
		clientConfig = openai.DefaultConfig(s.cfg.APIKey)
		if s.cfg.BaseURL != "" {
			clientConfig.BaseURL = s.cfg.BaseURL
		}
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.imageModel(openai.CreateImageModelDallE3),
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI image API error: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("OpenAI image API returned no data")
	}
	return base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
}

func (s *CoverService) geminiImage(ctx context.Context, prompt string) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini client error: %w", err)
	}

	resp, err := client.Models.GenerateImages(ctx, s.imageModel("imagen-3.0-generate-002"), prompt,
		&genai.GenerateImagesConfig{NumberOfImages: 1})
	if err != nil {
		return nil, fmt.Errorf("Gemini image API error: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("Gemini image API returned no image")
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

// RenderPlaceholder draws a square cover: a blue-violet diagonal gradient
// picked from the title hash, soft circles, and the wrapped title.
// The same title always gives the same image.
func RenderPlaceholder(title string) *image.RGBA {
	h := fnv.New32a()
	h.Write([]byte(title))
	seed := h.Sum32()

	hue := float64(200 + seed%60)
	stops := [3]color.RGBA{
		hslToRGB(hue, 0.70, 0.60),
		hslToRGB(math.Mod(hue+30, 360), 0.65, 0.55),
		hslToRGB(math.Mod(hue+60, 360), 0.60, 0.50),
	}

	img := image.NewRGBA(image.Rect(0, 0, coverSize, coverSize))
	span := float64(2 * (coverSize - 1))
	for y := 0; y < coverSize; y++ {
		for x := 0; x < coverSize; x++ {
			img.SetRGBA(x, y, gradientAt(stops, float64(x+y)/span))
		}
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	for i := 0; i < coverBubbles; i++ {
		cx, cy := rng.Intn(coverSize), rng.Intn(coverSize)
		r := 25 + rng.Intn(50)
		lighten(img, cx, cy, r, 0.1)
	}

	drawTitle(img, title)
	return img
}

func gradientAt(stops [3]color.RGBA, t float64) color.RGBA {
	if t <= 0.5 {
		return mix(stops[0], stops[1], t*2)
	}
	return mix(stops[1], stops[2], (t-0.5)*2)
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 255}
}

// lighten blends white over a disc.
func lighten(img *image.RGBA, cx, cy, r int, alpha float64) {
	b := img.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if !(image.Point{x, y}).In(b) || (x-cx)*(x-cx)+(y-cy)*(y-cy) > r*r {
				continue
			}
			c := img.RGBAAt(x, y)
			white := color.RGBA{255, 255, 255, 255}
			img.SetRGBA(x, y, mix(c, white, alpha))
		}
	}
}

func drawTitle(img *image.RGBA, title string) {
	face := basicfont.Face7x13
	glyphH := face.Height
	lines := wrapWords(title, coverLineChars, coverMaxLines)
	lineH := glyphH*coverTextScale + 8
	top := (coverSize - len(lines)*lineH) / 2
	ink := image.NewUniform(color.RGBA{255, 255, 255, 235})

	for i, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		if w == 0 {
			continue
		}
		layer := image.NewRGBA(image.Rect(0, 0, w, glyphH))
		d := &font.Drawer{Dst: layer, Src: ink, Face: face, Dot: fixed.P(0, face.Ascent)}
		d.DrawString(line)

		x := (coverSize - w*coverTextScale) / 2
		y := top + i*lineH
		dst := image.Rect(x, y, x+w*coverTextScale, y+glyphH*coverTextScale)
		xdraw.NearestNeighbor.Scale(img, dst, layer, layer.Bounds(), xdraw.Over, nil)
	}
}

// wrapWords breaks s into at most maxLines lines of at most width runes.
// Words longer than a line are cut. Overflow ends the last line with "...".
func wrapWords(s string, width, maxLines int) []string {
	var lines []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = nil
		}
	}
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > width {
			flush()
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= width:
			cur = append(append(cur, ' '), w...)
		default:
			flush()
			cur = w
		}
	}
	flush()

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		last := []rune(lines[maxLines-1])
		if len(last) > width-3 {
			last = last[:width-3]
		}
		lines[maxLines-1] = strings.TrimSpace(string(last)) + "..."
	}
	return lines
}

// hslToRGB takes hue in degrees and saturation/lightness in [0,1].
func hslToRGB(h, s, l float64) color.RGBA {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return color.RGBA{to8(r), to8(g), to8(b), 255}
}
