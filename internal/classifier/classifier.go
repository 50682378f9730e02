// Package classifier wraps the chat-completion API behind a small typed
// interface. Every call returns a structured result; a malformed model
// response degrades to a low-confidence UNKNOWN verdict instead of an error
// so one bad completion never aborts a batch.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/errors"
	"github.com/tphakala/radar-go/internal/logging"
	"github.com/tphakala/radar-go/internal/model"
)

var classifierLogger *slog.Logger

func init() {
	var err error
	classifierLogger, _, err = logging.NewFileLogger("logs/classifier.log", "classifier", slog.LevelInfo)
	if err != nil {
		classifierLogger = logging.DiscardLogger("classifier")
	}
}

// Text beyond these bounds adds cost without changing the verdict.
const (
	classifyTextLimit  = 4000
	biographyTextLimit = 3000
)

// ChatCompleter is the API surface the classifier needs. Satisfied by
// *openai.Client and by fakes in tests.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Classifier turns website text into typed classifications, biographies and
// trend reports.
type Classifier struct {
	settings *conf.Settings
	client   ChatCompleter
}

// New creates a classifier using the API key from the configured environment
// variable. A missing key fails fast here rather than on the first call.
func New(settings *conf.Settings) (*Classifier, error) {
	keyEnv := settings.Radar.LLM.APIKeyEnv
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, errors.Newf("API key environment variable %s is not set", keyEnv).
			Component("classifier").
			Category(errors.CategoryConfiguration).
			Context("env_var", keyEnv).
			Build()
	}
	return &Classifier{settings: settings, client: openai.NewClient(apiKey)}, nil
}

// NewWithClient creates a classifier with an injected completion client.
func NewWithClient(settings *conf.Settings, client ChatCompleter) *Classifier {
	return &Classifier{settings: settings, client: client}
}

// Classify grades how deeply the company uses the configured topic based on
// its website text. API transport failures return an error; an unparsable
// completion returns the fallback verdict with a nil error.
func (c *Classifier) Classify(ctx context.Context, companyName, text string) (*model.Classification, error) {
	userMsg := fmt.Sprintf("Company: %s\n\nWebsite text:\n%s", companyName, clipText(text, classifyTextLimit))

	raw, err := c.complete(ctx, c.settings.Radar.LLM.ClassificationPrompt, userMsg, true)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryLLMResponse).
			Context("company", companyName).
			Build()
	}

	cls := parseClassification(raw)
	if !cls.Category.Known() {
		classifierLogger.Warn("classification degraded to unknown",
			"company", companyName, "rationale", cls.Rationale)
	}
	return cls, nil
}

// Biography writes a short factual company profile. Callers treat an error
// as "no biography available" and proceed.
func (c *Classifier) Biography(ctx context.Context, companyName, text string) (string, error) {
	userMsg := fmt.Sprintf("Company: %s\n\nWebsite text:\n%s", companyName, clipText(text, biographyTextLimit))

	raw, err := c.complete(ctx, c.settings.Radar.LLM.BiographyPrompt, userMsg, false)
	if err != nil {
		return "", errors.New(err).
			Component("classifier").
			Category(errors.CategoryLLMResponse).
			Context("company", companyName).
			Build()
	}
	return strings.TrimSpace(raw), nil
}

// TrendReport writes an analyst-style report from per-company summary lines.
func (c *Classifier) TrendReport(ctx context.Context, summaryLines []string) (string, error) {
	if len(summaryLines) == 0 {
		return "", errors.Newf("no classified companies to report on").
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	userMsg := "Classification data:\n" + strings.Join(summaryLines, "\n")

	raw, err := c.complete(ctx, c.settings.Radar.LLM.TrendPrompt, userMsg, false)
	if err != nil {
		return "", errors.New(err).
			Component("classifier").
			Category(errors.CategoryLLMResponse).
			Context("companies", len(summaryLines)).
			Build()
	}
	return strings.TrimSpace(raw), nil
}

func (c *Classifier) complete(ctx context.Context, systemPrompt, userMsg string, wantJSON bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.settings.Radar.LLM.Model,
		Temperature: c.settings.Radar.LLM.Temperature,
		MaxTokens:   c.settings.Radar.LLM.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
	}
	if wantJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// rawClassification mirrors the JSON shape the prompt requests. Pointer
// fields distinguish "missing" from zero values.
type rawClassification struct {
	Category   string          `json:"category"`
	Rationale  string          `json:"rationale"`
	Evidence   json.RawMessage `json:"evidence"`
	Confidence *int            `json:"confidence"`
}

// parseClassification decodes the model output into the closed result type.
// Malformed JSON yields the fallback verdict {UNKNOWN, 0, "parse failed"}.
// Parsable JSON with missing keys gets neutral defaults instead: UNKNOWN
// category and confidence 50.
func parseClassification(raw string) *model.Classification {
	var parsed rawClassification
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		classifierLogger.Warn("unparsable classification response", "error", err)
		return &model.Classification{
			Category:   model.CategoryUnknown,
			Confidence: 0,
			Rationale:  "parse failed",
			Evidence:   []string{},
		}
	}

	confidence := 50
	if parsed.Confidence != nil {
		confidence = model.ClampConfidence(*parsed.Confidence)
	}
	return &model.Classification{
		Category:   model.ParseCategory(parsed.Category),
		Confidence: confidence,
		Rationale:  strings.TrimSpace(parsed.Rationale),
		Evidence:   parseEvidence(parsed.Evidence),
	}
}

// parseEvidence accepts either a JSON array of strings or a single string,
// both of which the model has been observed to produce.
func parseEvidence(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if s := strings.TrimSpace(single); s != "" {
			return []string{s}
		}
	}
	return []string{}
}

// stripCodeFence removes a surrounding markdown code fence if present.
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

// clipText bounds text at a rune boundary.
func clipText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
