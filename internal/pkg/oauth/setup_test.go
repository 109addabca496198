package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

func TestIsAdminEmail(t *testing.T) {
	env.Env = map[string]string{"ADMIN_EMAILS": " Studio@Example.com, , second@example.com"}
	t.Cleanup(func() { env.Env = nil })

	assert.Equal(t, []string{"studio@example.com", "second@example.com"}, AdminEmails())
	assert.True(t, IsAdminEmail("studio@example.com"))
	assert.True(t, IsAdminEmail("SECOND@example.com "))
	assert.False(t, IsAdminEmail("client@example.com"))
	assert.False(t, IsAdminEmail(""))
}

func TestEnabled(t *testing.T) {
	env.Env = map[string]string{"GOOGLE_KEY": "k"}
	t.Cleanup(func() { env.Env = nil })
	assert.False(t, Enabled())
	env.Env["GOOGLE_SECRET"] = "s"
	assert.True(t, Enabled())
}
