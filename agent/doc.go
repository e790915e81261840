// Package agent routes user requests to the agents that can serve them.
//
// A request first goes to a Detector, which classifies its text into an
// intent such as "email" or "calendar". The Manager then hands the request
// to the Agent registered for that intent in a Registry. Requests whose
// intent has no agent, including intent.Unknown, receive FallbackMessage
// instead of an error.
//
// # Registration
//
// The Registry is built once at startup and passed to NewManager, which
// takes a snapshot of it. Registering an intent twice replaces the first
// agent.
//
//	r := agent.NewRegistry()
//	r.Register(intent.Email, emailAgent)
//	r.Register(intent.Calendar, calendarAgent)
//	m := agent.NewManager(intent.NewDetector(provider, llm.Options{}, r.Intents()...), r)
//
//	resp, err := m.Handle(ctx, agent.NewRequest("What's on my calendar tomorrow?"))
//
// # Errors
//
// Empty requests fail with an InvalidInputError before the detector is
// consulted. Errors from the detector and the agents are returned
// unchanged, so callers can tell InvalidInputError, TransientError and
// FatalError apart (see package errors).
//
// # Actions
//
// Agents that need structured parameters ask the model for a JSON action
// with ExtractAction. Slightly malformed model output is repaired before
// it is parsed.
//
// # Subpackages
//
//   - agent/email, agent/calendar: the email and calendar agents
//   - agent/mcpagent: an agent backed by a tool of an external MCP server
//   - agent/terminal: the interactive chat loop
//   - agent/mcp: serves the Manager as an MCP tool
//   - agent/ws: serves the Manager over WebSocket
package agent
