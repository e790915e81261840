package intent

import (
	"context"
	"fmt"
	"testing"

	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	known := []Intent{Email, Calendar}
	tests := []struct {
		in   string
		want Intent
	}{
		{"calendar", Calendar},
		{"  Calendar\n", Calendar},
		{"EMAIL", Email},
		{"unknown", Unknown},
		{"calendar.", Unknown},
		{"the calendar agent", Unknown},
		{"\"email\"", Unknown},
		{"", Unknown},
		{"weather", Unknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in, known))
		})
	}
}

func TestParseOnlyRegisteredLabels(t *testing.T) {
	assert.Equal(t, Unknown, Parse("email", []Intent{Calendar}))
}

func TestDetect(t *testing.T) {
	m := llm.Replies(" Calendar ")
	d := NewDetector(m, llm.Options{}, Email, Calendar)

	got, err := d.Detect(context.Background(), "What's on my calendar tomorrow?")
	require.NoError(t, err)
	assert.Equal(t, Calendar, got)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "- email:")
	assert.Contains(t, calls[0].Prompt, "- calendar:")
	assert.Contains(t, calls[0].Prompt, "- unknown:")
	assert.Contains(t, calls[0].Prompt, "User input: What's on my calendar tomorrow?")
	require.NotNil(t, calls[0].Opts.Temperature)
	assert.Zero(t, *calls[0].Opts.Temperature)
	assert.NotEmpty(t, calls[0].Opts.System)
	assert.Zero(t, calls[0].Opts.MaxTokens)
}

func TestDetectFailsClosed(t *testing.T) {
	d := NewDetector(llm.Replies("I think this is about email or calendar"), llm.Options{}, Email, Calendar)

	got, err := d.Detect(context.Background(), "asdkjf qweoiru")
	require.NoError(t, err)
	assert.Equal(t, Unknown, got)
}

func TestDetectEmptyInput(t *testing.T) {
	m := &llm.MockProvider{}
	d := NewDetector(m, llm.Options{}, Email)

	_, err := d.Detect(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	assert.Empty(t, m.Calls())
}

func TestDetectPropagatesProviderClass(t *testing.T) {
	m := &llm.MockProvider{Reply: func(string, llm.Options) (string, error) {
		return "", errors.Transient(fmt.Errorf("429"), "rate limited")
	}}
	d := NewDetector(m, llm.Options{}, Email)

	_, err := d.Detect(context.Background(), "read my mail")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestNewDetectorSkipsUnknownAndDescribesCustom(t *testing.T) {
	m := llm.Replies("notes")
	d := NewDetector(m, llm.Options{Temperature: llm.Float(0.2)}, Unknown, "notes")
	assert.Equal(t, []Intent{"notes"}, d.Known())

	got, err := d.Detect(context.Background(), "jot this down")
	require.NoError(t, err)
	assert.Equal(t, Intent("notes"), got)
	assert.Contains(t, m.Calls()[0].Prompt, "- notes: notes requests")
	assert.Equal(t, 0.2, *m.Calls()[0].Opts.Temperature)
}
