package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/intent"
)

// Request is one user turn.
type Request struct {
	ID       string
	Text     string
	Received time.Time
}

// NewRequest stamps text with a fresh ID and the current time.
func NewRequest(text string) Request {
	return Request{
		ID:       uuid.NewString(),
		Text:     text,
		Received: time.Now(),
	}
}

// Empty reports whether the request carries no text beyond whitespace.
func (r Request) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Response is what the assistant says back for one turn.
type Response struct {
	Text string
	// Intent is the classification that selected the agent, or
	// intent.Unknown for a fallback.
	Intent intent.Intent
	// Fallback is set when no agent handled the request.
	Fallback bool
}

// Agent is a unit that can process a request and answer it.
//
// Implementations return an InvalidInputError for empty requests, and
// classify their failures as TransientError or FatalError where they can.
type Agent interface {
	Process(ctx context.Context, req Request) (Response, error)
}

// Handler answers user turns. Manager is the Handler every interaction
// surface drives.
type Handler interface {
	Handle(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to Agent. Empty requests are rejected before f
// is called.
type Func func(ctx context.Context, req Request) (Response, error)

func (f Func) Process(ctx context.Context, req Request) (Response, error) {
	if req.Empty() {
		return Response{}, ErrEmptyRequest()
	}
	return f(ctx, req)
}

// Static returns an Agent that always answers with reply.
func Static(reply string) Agent {
	return Func(func(context.Context, Request) (Response, error) {
		return Response{Text: reply}, nil
	})
}

// ErrEmptyRequest is the error returned for requests without text.
func ErrEmptyRequest() error {
	return errors.InvalidInput("please enter a request")
}
