package terminal

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/intent"
	"github.com/m4xw311/steward/llm"
)

func init() {
	color.NoColor = true
}

// scripted answers each request text from a table and records the order.
type scripted struct {
	replies map[string]func() (agent.Response, error)
	seen    []string
}

func (s *scripted) Handle(ctx context.Context, req agent.Request) (agent.Response, error) {
	s.seen = append(s.seen, req.Text)
	if f, ok := s.replies[req.Text]; ok {
		return f()
	}
	return agent.Response{Text: "ok: " + req.Text}, nil
}

func run(t *testing.T, h agent.Handler, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	term := New(h, []intent.Intent{intent.Calendar, intent.Email}, strings.NewReader(input), &out)
	err := term.Run(context.Background(), "")
	return out.String(), err
}

func TestRunAnswersUntilExit(t *testing.T) {
	for _, quit := range []string{"exit", "/exit", "/quit", "EXIT"} {
		t.Run(quit, func(t *testing.T) {
			h := &scripted{}
			out, err := run(t, h, "hello\n\n"+quit+"\nnever read\n")
			require.NoError(t, err)
			assert.Equal(t, []string{"hello"}, h.seen)
			assert.Contains(t, out, "You: Assistant: ok: hello\n")
			assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))
		})
	}
}

func TestRunEndsOnEOF(t *testing.T) {
	h := &scripted{}
	out, err := run(t, h, "first\nsecond")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, h.seen)
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))
}

func TestAgentsCommand(t *testing.T) {
	h := &scripted{}
	out, err := run(t, h, "/agents\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered agents: calendar, email\n")
	assert.Empty(t, h.seen)
}

func TestErrorClasses(t *testing.T) {
	h := &scripted{replies: map[string]func() (agent.Response, error){
		"invalid":   func() (agent.Response, error) { return agent.Response{}, errors.InvalidInput("who should I send it to?") },
		"transient": func() (agent.Response, error) { return agent.Response{}, errors.Transient(io.ErrUnexpectedEOF, "gmail is busy") },
		"plain":     func() (agent.Response, error) { return agent.Response{}, errors.New("boom") },
		"panic":     func() (agent.Response, error) { panic("nil map") },
	}}
	out, err := run(t, h, "invalid\ntransient\nplain\npanic\nafter\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"invalid", "transient", "plain", "panic", "after"}, h.seen)
	assert.Contains(t, out, "Assistant: who should I send it to?\n")
	assert.Contains(t, out, "There was a temporary problem: gmail is busy. Please try again.\n")
	assert.Contains(t, out, "boom\n")
	assert.Contains(t, out, "Error: something went wrong while handling that request.\n")
	assert.Contains(t, out, "Assistant: ok: after\n")
}

func TestFatalEndsSession(t *testing.T) {
	h := &scripted{replies: map[string]func() (agent.Response, error){
		"fatal": func() (agent.Response, error) { return agent.Response{}, errors.Fatal(nil, "OPENAI_API_KEY is not set") },
	}}
	out, err := run(t, h, "fatal\nnext\n")
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Equal(t, "OPENAI_API_KEY is not set", errors.Message(err))
	assert.Equal(t, []string{"fatal"}, h.seen)
	assert.NotContains(t, out, "OPENAI_API_KEY")
}

func TestInitialPrompt(t *testing.T) {
	h := &scripted{}
	var out bytes.Buffer
	err := New(h, nil, strings.NewReader(""), &out).Run(context.Background(), "what's on today?")
	require.NoError(t, err)
	assert.Equal(t, []string{"what's on today?"}, h.seen)
}

func TestCancelSaysGoodbye(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(&scripted{}, nil, pr, &out).Run(ctx, "") }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.True(t, strings.HasSuffix(out.String(), "Goodbye!\n"))
}

func TestScenarioOverManager(t *testing.T) {
	r := agent.NewRegistry()
	require.NoError(t, r.Register(intent.Calendar, agent.Static("Calendar agent invoked")))
	m := agent.NewManager(intent.NewDetector(llm.Replies("calendar", "unknown"), llm.Options{}, r.Intents()...), r)

	out, err := run(t, m, "What's on my calendar tomorrow?\nasdkjf qweoiru\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Assistant: Calendar agent invoked\n")
	assert.Contains(t, out, "Assistant: "+agent.FallbackMessage+"\n")
}
