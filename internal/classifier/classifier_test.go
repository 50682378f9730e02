package classifier

import (
	"context"
	"fmt"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/errors"
	"github.com/tphakala/radar-go/internal/model"
)

// fakeCompleter replays canned content and records the last request.
type fakeCompleter struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func testClassifier(content string, err error) (*Classifier, *fakeCompleter) {
	settings := testSettings()
	fake := &fakeCompleter{content: content, err: err}
	return NewWithClient(settings, fake), fake
}

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Radar.LLM.Model = "gpt-4o-mini"
	s.Radar.LLM.Temperature = 0.3
	s.Radar.LLM.MaxTokens = 1000
	s.Radar.LLM.APIKeyEnv = "RADAR_TEST_API_KEY"
	s.Radar.LLM.ClassificationPrompt = "classify"
	s.Radar.LLM.BiographyPrompt = "biography"
	s.Radar.LLM.TrendPrompt = "trend"
	return s
}

func TestNewFailsWithoutAPIKey(t *testing.T) {
	settings := testSettings()
	t.Setenv("RADAR_TEST_API_KEY", "")

	_, err := New(settings)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfiguration))
}

func TestNewSucceedsWithAPIKey(t *testing.T) {
	settings := testSettings()
	t.Setenv("RADAR_TEST_API_KEY", "sk-test")

	c, err := New(settings)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestClassifyParsesWellFormedResponse(t *testing.T) {
	c, fake := testClassifier(`{"category": "REAL_USE", "rationale": "production chatbot in use",
		"evidence": ["customer service chatbot", "demand forecasting"], "confidence": 85}`, nil)

	cls, err := c.Classify(context.Background(), "Acme GmbH", "website text")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryRealUse, cls.Category)
	assert.Equal(t, 85, cls.Confidence)
	assert.Equal(t, "production chatbot in use", cls.Rationale)
	assert.Equal(t, []string{"customer service chatbot", "demand forecasting"}, cls.Evidence)

	// Request carries settings and asks for JSON.
	assert.Equal(t, "gpt-4o-mini", fake.lastReq.Model)
	require.NotNil(t, fake.lastReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, fake.lastReq.ResponseFormat.Type)
	require.Len(t, fake.lastReq.Messages, 2)
	assert.Equal(t, "classify", fake.lastReq.Messages[0].Content)
	assert.Contains(t, fake.lastReq.Messages[1].Content, "Acme GmbH")
}

func TestClassifyGermanAliasAndFencedJSON(t *testing.T) {
	c, _ := testClassifier("```json\n{\"category\": \"ECHTER_EINSATZ\", \"confidence\": 70}\n```", nil)

	cls, err := c.Classify(context.Background(), "Acme", "text")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryRealUse, cls.Category)
	assert.Equal(t, 70, cls.Confidence)
}

func TestClassifyFallsBackOnUnparsableJSON(t *testing.T) {
	c, _ := testClassifier("I cannot answer in the requested format.", nil)

	cls, err := c.Classify(context.Background(), "Acme", "text")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryUnknown, cls.Category)
	assert.Equal(t, 0, cls.Confidence)
	assert.Equal(t, "parse failed", cls.Rationale)
	assert.Empty(t, cls.Evidence)
}

func TestClassifyMissingKeysGetNeutralDefaults(t *testing.T) {
	c, _ := testClassifier(`{"rationale": "thin website"}`, nil)

	cls, err := c.Classify(context.Background(), "Acme", "text")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryUnknown, cls.Category)
	assert.Equal(t, 50, cls.Confidence)
	assert.Equal(t, "thin website", cls.Rationale)
	assert.Empty(t, cls.Evidence)
}

func TestClassifyCoercesSingleStringEvidence(t *testing.T) {
	c, _ := testClassifier(`{"category": "INTEGRATION", "evidence": "pilot with vision system", "confidence": 60}`, nil)

	cls, err := c.Classify(context.Background(), "Acme", "text")
	require.NoError(t, err)
	assert.Equal(t, []string{"pilot with vision system"}, cls.Evidence)
}

func TestClassifyClampsConfidence(t *testing.T) {
	c, _ := testClassifier(`{"category": "BUZZWORD", "confidence": 180}`, nil)

	cls, err := c.Classify(context.Background(), "Acme", "text")
	require.NoError(t, err)
	assert.Equal(t, 100, cls.Confidence)
}

func TestClassifyTransportErrorSurfaces(t *testing.T) {
	c, _ := testClassifier("", fmt.Errorf("connection reset"))

	_, err := c.Classify(context.Background(), "Acme", "text")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryLLMResponse))
}

func TestClassifyBoundsPromptText(t *testing.T) {
	c, fake := testClassifier(`{"category": "NONE", "confidence": 90}`, nil)

	long := strings.Repeat("x", classifyTextLimit*2)
	_, err := c.Classify(context.Background(), "Acme", long)
	require.NoError(t, err)
	assert.Less(t, len(fake.lastReq.Messages[1].Content), classifyTextLimit+200)
}

func TestBiography(t *testing.T) {
	c, fake := testClassifier("  Acme builds industrial sensors in Ulm.  ", nil)

	bio, err := c.Biography(context.Background(), "Acme", "text")
	require.NoError(t, err)
	assert.Equal(t, "Acme builds industrial sensors in Ulm.", bio)
	assert.Nil(t, fake.lastReq.ResponseFormat)
	assert.Equal(t, "biography", fake.lastReq.Messages[0].Content)
}

func TestBiographyErrorSurfaces(t *testing.T) {
	c, _ := testClassifier("", fmt.Errorf("rate limited"))

	bio, err := c.Biography(context.Background(), "Acme", "text")
	require.Error(t, err)
	assert.Empty(t, bio)
}

func TestTrendReport(t *testing.T) {
	c, fake := testClassifier("Adoption in the region is led by manufacturing.", nil)

	report, err := c.TrendReport(context.Background(), []string{
		"Acme | REAL_USE | 85 | chatbot",
		"Beta | BUZZWORD | 60 |",
	})
	require.NoError(t, err)
	assert.Contains(t, report, "manufacturing")
	assert.Contains(t, fake.lastReq.Messages[1].Content, "Acme | REAL_USE")
}

func TestTrendReportRejectsEmptyInput(t *testing.T) {
	c, _ := testClassifier("unused", nil)

	_, err := c.TrendReport(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}
