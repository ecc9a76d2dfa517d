package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jholzmann/canopy/pkg/errors"
)

// DefaultModel is the Gemini model used when the config names none.
const DefaultModel = "gemini-2.0-flash"

// =============================================================================
// GeminiProvider
// =============================================================================

// GeminiProvider implements Provider using Gemini text generation.
// Structured calls instruct the model to answer with a bare JSON document
// and parse the response strictly; anything unparseable surfaces as a
// PROVIDER_ERROR, which the orchestrator treats as a recoverable per-step
// failure.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider backed by the Gemini API.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "create genai client")
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// =============================================================================
// Provider Implementation
// =============================================================================

// DeriveTitle condenses a free-text prompt into a short topic title.
func (p *GeminiProvider) DeriveTitle(ctx context.Context, prompt string) (string, error) {
	text, err := p.generate(ctx, fmt.Sprintf(
		"Derive a short, canonical topic title (at most 6 words, no quotes, "+
			"no trailing punctuation) from this learning request:\n\n%s\n\n"+
			"Answer with the title only.", prompt))
	if err != nil {
		return "", err
	}
	title := strings.TrimSpace(strings.Trim(text, `"`))
	if title == "" {
		return "", errors.New(errors.ErrCodeProviderEmpty, "empty title response")
	}
	return title, nil
}

// ListChapters asks the model for a chapter breakdown of the topic.
// The model chooses the count based on topic breadth.
func (p *GeminiProvider) ListChapters(ctx context.Context, topic, userContext string) ([]Chapter, error) {
	prompt := fmt.Sprintf(
		"Break the topic %q into chapters for a learner%s. Choose how many "+
			"chapters the topic warrants (typically 4-10). Respond with JSON only, "+
			"no prose and no code fences:\n"+
			`[{"title": "...", "summary": "one or two sentences"}]`,
		topic, forAudience(userContext))

	var chapters []Chapter
	if err := p.generateJSON(ctx, prompt, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

// ListSubchapters asks the model for the subchapters of one chapter.
func (p *GeminiProvider) ListSubchapters(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error) {
	prompt := fmt.Sprintf(
		"For the topic %q, break the chapter %q into 2-5 subchapters%s. "+
			"Each subchapter lists the concrete learning points it covers. "+
			"Respond with JSON only, no prose and no code fences:\n"+
			`[{"title": "...", "learning_points": ["...", "..."]}]`,
		topic, chapterTitle, forAudience(userContext))

	var subs []Subchapter
	if err := p.generateJSON(ctx, prompt, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// ExplainPoint asks the model for a detailed explanation of one learning
// point.
func (p *GeminiProvider) ExplainPoint(ctx context.Context, subchapterTitle, userContext, point string) (Detail, error) {
	prompt := fmt.Sprintf(
		"Within the subchapter %q, explain the learning point %q in depth%s. "+
			"Respond with JSON only, no prose and no code fences:\n"+
			`{"title": "short heading", "explanation": "comprehensive markdown explanation", "core_points": ["...", "..."]}`,
		subchapterTitle, point, forAudience(userContext))

	var detail Detail
	if err := p.generateJSON(ctx, prompt, &detail); err != nil {
		return Detail{}, err
	}
	return detail, nil
}

// =============================================================================
// Internal
// =============================================================================

// generate runs one text completion and returns the raw response text.
func (p *GeminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeProvider, err, "generate content")
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New(errors.ErrCodeProviderEmpty, "empty model response")
	}
	return text, nil
}

// generateJSON runs one completion and decodes the response into out.
// Model responses wrapped in markdown code fences are unwrapped first.
func (p *GeminiProvider) generateJSON(ctx context.Context, prompt string, out any) error {
	text, err := p.generate(ctx, prompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), out); err != nil {
		return errors.Wrap(errors.ErrCodeProvider, err, "malformed model response")
	}
	return nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence, which the
// model emits despite instructions often enough to handle unconditionally.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// forAudience renders the optional user context as a prompt clause.
func forAudience(userContext string) string {
	if userContext == "" {
		return ""
	}
	return fmt.Sprintf(" (audience: %s)", userContext)
}

var _ Provider = (*GeminiProvider)(nil)
