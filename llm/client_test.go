package llm

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/m4xw311/steward/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), "eliza", "")
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestNewMissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	for _, name := range []string{"openai", "anthropic", "gemini"} {
		t.Run(name, func(t *testing.T) {
			_, err := New(context.Background(), name, "m")
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestMockProvider(t *testing.T) {
	m := &MockProvider{}
	out, err := m.Complete(context.Background(), "hi", Options{Model: "x"})
	require.NoError(t, err)
	assert.Contains(t, out, "You said: 'hi'")
	require.Len(t, m.Calls(), 1)
	assert.Equal(t, "x", m.Calls()[0].Opts.Model)
}

func TestReplies(t *testing.T) {
	m := Replies("one", "two")
	ctx := context.Background()
	for _, want := range []string{"one", "two", "two"} {
		got, err := m.Complete(ctx, "", Options{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Len(t, m.Calls(), 3)
}

func TestOptionsDefaults(t *testing.T) {
	assert.EqualValues(t, 1024, Options{}.maxTokens())
	assert.EqualValues(t, 10, Options{MaxTokens: 10}.maxTokens())
	assert.Equal(t, "base", Options{}.model("base"))
	assert.Equal(t, "override", Options{Model: "override"}.model("base"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		fatal     bool
	}{
		{"rate limit", &googleapi.Error{Code: http.StatusTooManyRequests}, true, false},
		{"server error", &googleapi.Error{Code: http.StatusBadGateway}, true, false},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, false, true},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, false, false},
		{"deadline", context.DeadlineExceeded, true, false},
		{"plain", fmt.Errorf("eof"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, "calling model")
			require.Error(t, err)
			assert.Equal(t, tt.transient, errors.IsTransient(err))
			assert.Equal(t, tt.fatal, errors.IsFatal(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, classify(nil, "nothing"))
	assert.Equal(t, context.Canceled, classify(context.Canceled, "cancelled"))
}
