package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 20 * time.Second

	// EmptyResponseText is returned when the model answers with no text.
	EmptyResponseText = "Could not create a draft. Please write your message manually."
)

var ErrMissingInput = errors.New("client name and notes are required for a draft")

// Generator writes a message from the client to the photographer.
// Generate never fails; errors degrade to Fallback.
type Generator interface {
	Generate(ctx context.Context, clientName string, selectedCount int, notes string) string
}

// ModelFunc returns the model id to use for the next call.
type ModelFunc func() string

// Validate checks the input a draft needs
func Validate(clientName, notes string) error {
	if strings.TrimSpace(clientName) == "" || strings.TrimSpace(notes) == "" {
		return ErrMissingInput
	}
	return nil
}

// Fallback is the fixed template used when no model is available.
func Fallback(clientName string, selectedCount int, notes string) string {
	return fmt.Sprintf("Hello,\n\nI have selected %d photos. My notes are: %s.\n\nI look forward to seeing the edits!\n\nBest regards,\n%s",
		selectedCount, notes, clientName)
}

// FallbackGenerator always answers with Fallback.
type FallbackGenerator struct{}

func (FallbackGenerator) Generate(_ context.Context, clientName string, selectedCount int, notes string) string {
	return Fallback(clientName, selectedCount, notes)
}

func buildPrompt(clientName string, selectedCount int, notes string) string {
	return fmt.Sprintf(`You are an assistant helping a photography client.
The client "%s" has selected %d photos from the gallery.
They left these editing notes: "%s".

Write a polite, professional and friendly message from the client to the photographer.
The message must:
1. Confirm that they have finished choosing photos.
2. Mention how many photos were selected.
3. Politely ask for edits based on their notes.
4. Ask for an estimated completion time.

Return ONLY the message body. Do not include a subject line or placeholders such as [Your Name].`,
		clientName, selectedCount, notes)
}

type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// GenAIGenerator drafts messages with the Gemini API.
type GenAIGenerator struct {
	generate generateFunc
	model    ModelFunc
	timeout  time.Duration
}

// NewGenAIGenerator creates a Gemini backed generator. model may be nil.
func NewGenAIGenerator(ctx context.Context, apiKey string, model ModelFunc) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

func (g *GenAIGenerator) modelID() string {
	if g.model != nil {
		if m := strings.TrimSpace(g.model()); m != "" {
			return m
		}
	}
	return DefaultModel
}

// Generate asks the model for a draft
func (g *GenAIGenerator) Generate(ctx context.Context, clientName string, selectedCount int, notes string) string {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.generate(ctx, g.modelID(), buildPrompt(clientName, selectedCount, notes))
	if err != nil {
		log.Warnf("[Draft] Gemini request failed: %v", err)
		return Fallback(clientName, selectedCount, notes)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyResponseText
	}
	return text
}

// New returns a Gemini generator when apiKey is set and the fallback
// generator otherwise.
func New(ctx context.Context, apiKey string, model ModelFunc) Generator {
	if apiKey == "" {
		log.Info("[Draft] GEMINI_API_KEY not set, drafts use the built-in template")
		return FallbackGenerator{}
	}
	g, err := NewGenAIGenerator(ctx, apiKey, model)
	if err != nil {
		log.Errorf("[Draft] %v, drafts use the built-in template", err)
		return FallbackGenerator{}
	}
	return g
}
