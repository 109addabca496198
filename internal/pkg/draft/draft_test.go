package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubGenerator(text string, err error) (*GenAIGenerator, *[]string) {
	var models []string
	g := &GenAIGenerator{
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			models = append(models, model)
			return text, err
		},
	}
	return g, &models
}

func TestGenerate_ReturnsModelText(t *testing.T) {
	g, models := stubGenerator("  Hi there  \n", nil)
	assert.Equal(t, "Hi there", g.Generate(context.Background(), "Rina", 12, "brighter"))
	assert.Equal(t, []string{DefaultModel}, *models)
}

func TestGenerate_EmptyResponse(t *testing.T) {
	g, _ := stubGenerator("", nil)
	assert.Equal(t, EmptyResponseText, g.Generate(context.Background(), "Rina", 3, "x"))
}

func TestGenerate_ErrorFallsBack(t *testing.T) {
	g, _ := stubGenerator("", errors.New("quota"))
	out := g.Generate(context.Background(), "Rina", 3, "warmer tones")
	assert.Equal(t, Fallback("Rina", 3, "warmer tones"), out)
	assert.Contains(t, out, "3 photos")
	assert.Contains(t, out, "warmer tones")
	assert.Contains(t, out, "Rina")
}

func TestGenerate_ModelFromSettings(t *testing.T) {
	g, models := stubGenerator("ok", nil)
	g.model = func() string { return "gemini-2.0-pro" }
	g.Generate(context.Background(), "a", 1, "b")
	g.model = func() string { return "  " }
	g.Generate(context.Background(), "a", 1, "b")
	assert.Equal(t, []string{"gemini-2.0-pro", DefaultModel}, *models)
}

func TestGenerate_Timeout(t *testing.T) {
	g := &GenAIGenerator{
		timeout: 10 * time.Millisecond,
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	assert.Equal(t, Fallback("a", 2, "n"), g.Generate(context.Background(), "a", 2, "n"))
}

func TestPromptMentionsInputs(t *testing.T) {
	p := buildPrompt("Adi", 7, "remove blemish")
	assert.Contains(t, p, `"Adi"`)
	assert.Contains(t, p, "7 photos")
	assert.Contains(t, p, "remove blemish")
}

func TestNewWithoutKeyUsesFallback(t *testing.T) {
	g := New(context.Background(), "", nil)
	require.IsType(t, FallbackGenerator{}, g)
	assert.Equal(t, Fallback("x", 1, "y"), g.Generate(context.Background(), "x", 1, "y"))

	_, err := NewGenAIGenerator(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("Rina", "notes"))
	assert.ErrorIs(t, Validate(" ", "notes"), ErrMissingInput)
	assert.ErrorIs(t, Validate("Rina", ""), ErrMissingInput)
}
