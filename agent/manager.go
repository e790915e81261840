package agent

import (
	"context"
	"log/slog"
	"maps"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m4xw311/steward/intent"
)

// FallbackMessage answers requests no registered agent can handle.
const FallbackMessage = "Sorry, I couldn't understand that request. Could you rephrase it?"

// Detector classifies request text into an intent.
type Detector interface {
	Detect(ctx context.Context, text string) (intent.Intent, error)
}

// Manager routes each user turn to the agent registered for its intent.
// It keeps no state between turns.
type Manager struct {
	detector Detector
	agents   map[intent.Intent]Agent
	log      *slog.Logger
}

// NewManager returns a Manager routing with a snapshot of r. Later
// changes to r are not seen by the Manager.
func NewManager(d Detector, r *Registry) *Manager {
	return &Manager{
		detector: d,
		agents:   maps.Clone(r.agents),
		log:      slog.Default().With("component", "manager"),
	}
}

// Intents lists the intents the Manager can route to.
func (m *Manager) Intents() []intent.Intent {
	return sortedIntents(m.agents)
}

// Handle processes one turn. Empty input fails with an InvalidInputError
// before classification. A request whose intent has no agent receives
// the fallback response and no error. Agent errors are returned as-is so
// their classification reaches the caller.
func (m *Manager) Handle(ctx context.Context, req Request) (Response, error) {
	ctx, span := otel.Tracer("steward/agent").Start(ctx, "manager.Handle")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", req.ID))

	if req.Empty() {
		return Response{}, ErrEmptyRequest()
	}

	detected, err := m.detector.Detect(ctx, req.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "intent detection failed")
		return Response{}, err
	}
	span.SetAttributes(attribute.String("intent", string(detected)))

	a, ok := m.agents[detected]
	if !ok {
		m.log.InfoContext(ctx, "no agent for intent", "request_id", req.ID, "intent", detected)
		return Response{Text: FallbackMessage, Intent: intent.Unknown, Fallback: true}, nil
	}

	m.log.DebugContext(ctx, "routing request", "request_id", req.ID, "intent", detected)
	resp, err := a.Process(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "agent failed")
		m.log.ErrorContext(ctx, "agent failed", "request_id", req.ID, "intent", detected, "error", err)
		return Response{Intent: detected}, err
	}
	resp.Intent = detected
	return resp, nil
}
