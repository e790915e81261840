package agent

import (
	"io"
	"log/slog"
	"sort"

	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/intent"
)

// Registry maps each intent to the agent serving it. It is filled once at
// startup and handed to NewManager.
type Registry struct {
	agents map[intent.Intent]Agent
	log    *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[intent.Intent]Agent),
		log:    slog.Default().With("component", "agent.registry"),
	}
}

// Register binds a to i. A second registration for the same intent
// replaces the first. The Unknown intent cannot be bound: unclassified
// requests always receive the fallback response.
func (r *Registry) Register(i intent.Intent, a Agent) error {
	if i == "" || i == intent.Unknown {
		return errors.New("cannot register an agent for intent %q", i)
	}
	if a == nil {
		return errors.New("agent for intent %q cannot be nil", i)
	}
	if _, ok := r.agents[i]; ok {
		r.log.Warn("replacing registered agent", "intent", i)
	}
	r.agents[i] = a
	r.log.Info("registered agent", "intent", i)
	return nil
}

// Intents returns the registered intents in sorted order.
func (r *Registry) Intents() []intent.Intent {
	return sortedIntents(r.agents)
}

// Close closes every registered agent that holds resources.
func (r *Registry) Close() error {
	var firstErr error
	for _, i := range r.Intents() {
		c, ok := r.agents[i].(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "closing %s agent", i)
		}
	}
	return firstErr
}

func sortedIntents(m map[intent.Intent]Agent) []intent.Intent {
	out := make([]intent.Intent, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
