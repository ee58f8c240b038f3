// Package giftideas consumes an external text-generation service to
// produce gift suggestions for a person. The service is a black box:
// one prompt in, free text out, parsed heuristically.
package giftideas

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// Person carries the user-supplied attributes the prompt is assembled
// from. All fields are optional free text.
type Person struct {
	Hobbies     string
	Occupation  string
	Interests   string
	Personality string
	Favorites   string
	Age         string
	Budget      string
}

// Suggestion is one parsed gift idea.
type Suggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FailureKind classifies an external-service failure.
type FailureKind string

const (
	FailAuth    FailureKind = "auth"
	FailQuota   FailureKind = "quota"
	FailNetwork FailureKind = "network"
	FailUnknown FailureKind = "unknown"
)

// Failure is a tagged, user-presentable external-service error.
type Failure struct {
	Kind    FailureKind
	Message string
	Details string
}

func (f *Failure) Error() string { return f.Message }

func classify(err error) *Failure {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401"):
		return &Failure{
			Kind:    FailAuth,
			Message: "Invalid API key. Please check your configured key.",
			Details: err.Error(),
		}
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429"):
		return &Failure{
			Kind:    FailQuota,
			Message: "API quota exceeded. Please try again later.",
			Details: err.Error(),
		}
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection") ||
		strings.Contains(msg, "dial") || strings.Contains(msg, "timeout"):
		return &Failure{
			Kind:    FailNetwork,
			Message: "Network error. Please check your internet connection.",
			Details: err.Error(),
		}
	default:
		return &Failure{
			Kind:    FailUnknown,
			Message: "Failed to generate gift ideas. Please try again.",
			Details: err.Error(),
		}
	}
}

// TextGenerator is the external text-generation contract.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// AnthropicGenerator backs TextGenerator with the Anthropic API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicGenerator(apiKey, model string) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 2048,
	}
}

func (g *AnthropicGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Service ties the generator and the parser together.
type Service struct {
	gen TextGenerator
	log *zap.SugaredLogger
}

func NewService(gen TextGenerator, log *zap.SugaredLogger) *Service {
	return &Service{gen: gen, log: log}
}

// Generate builds the prompt, calls the external service and parses
// the response. On success the suggestion list is never empty; on
// failure the returned Failure carries a user-facing message.
func (s *Service) Generate(ctx context.Context, person Person) ([]Suggestion, *Failure) {
	prompt := BuildPrompt(person)
	s.log.Infof("[gift] requesting suggestions (%d char prompt)", len(prompt))

	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		f := classify(err)
		s.log.Errorf("[gift] generation failed (%s): %v", f.Kind, err)
		return nil, f
	}

	ideas := Parse(text)
	s.log.Infof("[gift] parsed %d suggestions", len(ideas))
	return ideas, nil
}
