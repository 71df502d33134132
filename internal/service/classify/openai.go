package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sashabaranov/go-openai"

	"problembox/internal/domain"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/tree"
)

var classifyCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "problembox_classify_requests_total",
	Help: "Classification calls by model and outcome.",
}, []string{"model", "outcome"})

// ChatCompleter is the part of the OpenAI client the classifier uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier classifies questions with one chat completion per batch.
// Any OpenAI-compatible endpoint works, OpenRouter included.
type OpenAIClassifier struct {
	client       ChatCompleter
	registry     *Registry
	defaultModel string
	logger       *slog.Logger
}

// NewOpenAIClient builds a go-openai client, pointing it at baseURL when set.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// NewOpenAIClassifier creates a classifier. defaultModel is used when a
// request names no model or one missing from the registry.
func NewOpenAIClassifier(client ChatCompleter, registry *Registry, defaultModel string, logger *slog.Logger) *OpenAIClassifier {
	return &OpenAIClassifier{
		client:       client,
		registry:     registry,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

type classifyResponse struct {
	Items []struct {
		Summary    string `json:"summary"`
		Mid        string `json:"mid"`
		Small      string `json:"small"`
		Difficulty string `json:"difficulty"`
	} `json:"items"`
}

// Classify implements svc.Classifier.
func (c *OpenAIClassifier) Classify(ctx context.Context, req *svc.ClassifyRequest) ([]svc.Classification, error) {
	if len(req.Items) == 0 {
		return nil, nil
	}
	model := c.resolveModel(req.Model)
	if model.MaxItems > 0 && len(req.Items) > model.MaxItems {
		return nil, fmt.Errorf("%w: %d items exceed %s limit of %d",
			domain.ErrValidation, len(req.Items), model.ID, model.MaxItems)
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model.ID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.registry.Prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: c.registry.Prompt.Render(req.Subject, req.ExistingCategories, req.Items)},
		},
		Temperature: model.Temperature,
	}
	if model.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	c.logger.Debug("classifying", "model", model.ID, "subject", req.Subject, "items", len(req.Items))
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		classifyCalls.WithLabelValues(model.ID, "error").Inc()
		return nil, fmt.Errorf("%w: classification call: %v", domain.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		classifyCalls.WithLabelValues(model.ID, "empty").Inc()
		return nil, fmt.Errorf("%w: classification returned no choices", domain.ErrUnavailable)
	}

	results, err := parseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		classifyCalls.WithLabelValues(model.ID, "malformed").Inc()
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUnavailable, model.ID, err)
	}
	classifyCalls.WithLabelValues(model.ID, "ok").Inc()
	return results, nil
}

func (c *OpenAIClassifier) resolveModel(requested string) Model {
	if requested != "" {
		if m, ok := c.registry.Lookup(requested); ok {
			return m
		}
		c.logger.Warn("unknown classify model, using default", "model", requested, "default", c.defaultModel)
	}
	m, ok := c.registry.Lookup(c.defaultModel)
	if !ok && c.defaultModel != "" {
		// A configured model outside the registry keeps the first entry's settings.
		m.ID = c.defaultModel
	}
	return m
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// parseClassification reads the model output, tolerating prose around the
// JSON object.
func parseClassification(content string) ([]svc.Classification, error) {
	var parsed classifyResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		match := jsonObject.FindString(content)
		if match == "" {
			return nil, errors.New("no JSON object in response")
		}
		if err := json.Unmarshal([]byte(match), &parsed); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}

	results := make([]svc.Classification, len(parsed.Items))
	for i, item := range parsed.Items {
		results[i] = svc.Classification{
			Summary:    strings.TrimSpace(item.Summary),
			Mid:        strings.TrimSpace(item.Mid),
			Small:      strings.TrimSpace(item.Small),
			Difficulty: tree.NormalizeDifficulty(strings.ToLower(strings.TrimSpace(item.Difficulty))),
		}
	}
	return results, nil
}
