package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

const (
	maxSummaryLen  = 140
	summaryTimeout = 20 * time.Second

	SummarySourceHeuristic = "heuristic"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	stopWords     = map[string]bool{
		"this": true, "that": true, "with": true, "from": true, "they": true, "were": true,
		"been": true, "have": true, "will": true, "would": true, "could": true, "should": true,
		"their": true, "there": true, "which": true, "about": true, "through": true,
	}
	researchInsights = []string{
		"Novel approach to an existing problem",
		"Comprehensive data analysis",
		"Significant findings documented",
		"Practical applications identified",
		"Experimental validation completed",
	}
)

type SummaryMedia struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

type SummaryRequest struct {
	Title       string         `json:"title" binding:"required,max=255"`
	Description string         `json:"description"`
	Media       []SummaryMedia `json:"media" binding:"max=100"`
}

type SummaryResult struct {
	Summary string `json:"summary"`
	Source  string `json:"source"` // provider name or "heuristic"
}

type completeFunc func(ctx context.Context, prompt string) (string, error)

type SummaryService struct {
	cfg      *config.AIConfig
	projects *ProjectService
	complete completeFunc
}

func NewSummaryService(cfg *config.AIConfig, projects *ProjectService) *SummaryService {
	s := &SummaryService{cfg: cfg, projects: projects}
	if s.providerUsable() {
		s.complete = s.callLLM
	}
	return s
}

func (s *SummaryService) providerUsable() bool {
	if s.cfg == nil || s.cfg.Provider == "" || s.cfg.Provider == SummarySourceHeuristic {
		return false
	}
	// ollama runs locally without a key
	return s.cfg.APIKey != "" || s.cfg.Provider == "ollama"
}

// Generate summarizes a project description. Provider failures fall back
// to the heuristic summary, so only an empty title is an error.
func (s *SummaryService) Generate(ctx context.Context, req *SummaryRequest) (*SummaryResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newTitleRequired()
	}

	if s.complete != nil {
		ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
		defer cancel()

		out, err := s.complete(ctx, buildSummaryPrompt(req))
		if err == nil {
			if text := truncateRunes(cleanSummary(out), maxSummaryLen); text != "" {
				return &SummaryResult{Summary: text, Source: s.cfg.Provider}, nil
			}
		} else {
			logger.Warn().Err(err).Str("provider", s.cfg.Provider).Msg("[AI] summary provider failed, using heuristic")
		}
	}

	return &SummaryResult{Summary: HeuristicSummary(req), Source: SummarySourceHeuristic}, nil
}

// ForProject summarizes a stored project.
func (s *SummaryService) ForProject(ctx context.Context, projectID uint) (*SummaryResult, error) {
	project, err := s.projects.GetByID(projectID)
	if err != nil {
		return nil, err
	}

	req := &SummaryRequest{
		Title:       html.UnescapeString(project.Title),
		Description: html.UnescapeString(project.Description),
	}
	for _, m := range project.Media {
		req.Media = append(req.Media, SummaryMedia{Filename: m.Filename, Type: m.Type})
	}
	return s.Generate(ctx, req)
}

func buildSummaryPrompt(req *SummaryRequest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write a one-line summary of at most %d characters for this research project. ", maxSummaryLen))
	sb.WriteString("Reply with the summary only.\n\n")
	sb.WriteString("Title: " + req.Title + "\n")
	if req.Description != "" {
		sb.WriteString("Description: " + req.Description + "\n")
	}
	if counts := mediaCounts(req.Media); counts != "" {
		sb.WriteString("Attached resources: " + counts + "\n")
	}
	return sb.String()
}

// cleanSummary keeps the first non-blank line of a model reply without
// surrounding quotes.
func cleanSummary(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"“”")
	return strings.TrimSpace(s)
}

// HeuristicSummary builds a deterministic summary from the title, key
// terms, the first sentence and media counts.
func HeuristicSummary(req *SummaryRequest) string {
	parts := []string{strings.TrimSpace(req.Title)}

	if desc := strings.TrimSpace(req.Description); desc != "" {
		if terms := keyTerms(desc, 3); len(terms) > 0 {
			parts = append(parts, "Key focus: "+strings.Join(terms, ", "))
		}

		for _, sentence := range sentenceSplit.Split(desc, -1) {
			if sentence = strings.TrimSpace(sentence); len(sentence) > 10 {
				parts = append(parts, truncateRunes(sentence, 60))
				break
			}
		}
	}

	if counts := mediaCounts(req.Media); counts != "" {
		parts = append(parts, "Resources: "+counts)
	}

	h := fnv.New32a()
	h.Write([]byte(req.Title))
	parts = append(parts, researchInsights[h.Sum32()%uint32(len(researchInsights))])

	return truncateRunes(strings.Join(parts, " | "), maxSummaryLen)
}

// keyTerms returns up to n distinct lower-cased words longer than four
// letters that are not stop words, in order of appearance.
func keyTerms(text string, n int) []string {
	var terms []string
	seen := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if len(w) <= 4 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
		if len(terms) == n {
			break
		}
	}
	return terms
}

// mediaCounts renders "2 image, 1 video" in a fixed kind order.
func mediaCounts(media []SummaryMedia) string {
	counts := map[string]int{}
	for _, m := range media {
		counts[m.Type]++
	}
	var out []string
	for _, kind := range []string{"image", "video", "doc"} {
		if n := counts[kind]; n > 0 {
			out = append(out, fmt.Sprintf("%d %s", n, kind))
		}
	}
	return strings.Join(out, ", ")
}

// truncateRunes cuts s to at most n runes, ending in "..." when cut.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}

func (s *SummaryService) callLLM(ctx context.Context, prompt string) (string, error) {
	logger.Debug().Str("provider", s.cfg.Provider).Str("model", s.cfg.Model).Msg("[AI] requesting summary")

	switch s.cfg.Provider {
	case "anthropic":
		return s.callAnthropic(ctx, prompt)
	case "ollama":
		return s.callOllama(ctx, prompt)
	case "gemini":
		return s.callGemini(ctx, prompt)
	case "azure":
		return s.callAzure(ctx, prompt)
	default:
		// openai and other OpenAI-compatible services
		return s.callOpenAI(ctx, prompt)
	}
}

func (s *SummaryService) temperature() float32 {
	if s.cfg.Temperature > 0 {
		return float32(s.cfg.Temperature)
	}
	return 0.7
}

func (s *SummaryService) maxTokens() int {
	if s.cfg.MaxTokens > 0 {
		return s.cfg.MaxTokens
	}
	return 256
}

func (s *SummaryService) chatCompletion(ctx context.Context, clientConfig openai.ClientConfig, model, prompt string) (string, error) {
	client := openai.NewClientWithConfig(clientConfig)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: s.temperature(),
		MaxTokens:   s.maxTokens(),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs
func (s *SummaryService) callOpenAI(ctx context.Context, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(s.cfg.APIKey)
	if s.cfg.BaseURL != "" {
		clientConfig.BaseURL = s.cfg.BaseURL
	}
	model := s.cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	out, err := s.chatCompletion(ctx, clientConfig, model, prompt)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	return out, nil
}

// callAzure uses the model field as the deployment name.
func (s *SummaryService) callAzure(ctx context.Context, prompt string) (string, error) {
	out, err := s.chatCompletion(ctx, openai.DefaultAzureConfig(s.cfg.APIKey, s.cfg.BaseURL), s.cfg.Model, prompt)
	if err != nil {
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}
	return out, nil
}

func (s *SummaryService) callAnthropic(ctx context.Context, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(s.cfg.APIKey)}
	if s.cfg.BaseURL != "" && !strings.Contains(s.cfg.BaseURL, "openai.com") {
		opts = append(opts, option.WithBaseURL(s.cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := s.cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = "claude-3-5-haiku-latest"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(s.maxTokens()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

func (s *SummaryService) callOllama(ctx context.Context, prompt string) (string, error) {
	baseURL := s.cfg.BaseURL
	if baseURL == "" || strings.Contains(baseURL, "openai.com") {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := s.cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = "llama3"
	}

	stream := false
	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": s.temperature(),
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return content.String(), nil
}

func (s *SummaryService) callGemini(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := s.cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = "gemini-2.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}
