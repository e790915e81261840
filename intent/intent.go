// Package intent classifies free-text requests into the task an agent can
// perform.
package intent

import "strings"

// Intent labels the kind of task a user asks for.
type Intent string

const (
	Email    Intent = "email"
	Calendar Intent = "calendar"
	// Unknown is produced whenever the classifier cannot name a known intent.
	Unknown Intent = "unknown"
)

// Descriptions holds the one-line capability summaries shown to the model
// for the built-in intents.
var Descriptions = map[Intent]string{
	Email:    "reading, summarizing or sending email (e.g. \"show my recent emails\", \"email bob about lunch\")",
	Calendar: "viewing or scheduling calendar events (e.g. \"what's on tomorrow\", \"book a meeting at 3pm\")",
}

// Parse matches label against known, ignoring case and surrounding
// whitespace. Anything else, including near misses, yields Unknown.
func Parse(label string, known []Intent) Intent {
	label = strings.TrimSpace(label)
	for _, k := range known {
		if k != Unknown && strings.EqualFold(label, string(k)) {
			return k
		}
	}
	return Unknown
}
