package agent

import (
	"context"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"

	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/llm"
)

// Action is a task an agent extracted from a request with the model:
// a name such as "send_email" and its parameters.
type Action struct {
	Name   string
	Params gjson.Result
}

// ExtractAction asks p to turn a request into a JSON object of the form
// {"action": "...", "parameters": {...}}. Model output wrapped in prose
// or code fences, or slightly malformed, is repaired before parsing.
func ExtractAction(ctx context.Context, p llm.CompletionProvider, prompt string, opts llm.Options) (Action, error) {
	out, err := p.Complete(ctx, prompt, opts)
	if err != nil {
		return Action{}, err
	}
	return ParseAction(out)
}

// ParseAction parses model output into an Action.
func ParseAction(out string) (Action, error) {
	raw := jsonObject(out)
	if !gjson.Valid(raw) {
		fixed, err := jsonrepair.JSONRepair(raw)
		if err != nil || !gjson.Valid(fixed) {
			return Action{}, errors.InvalidInput("I couldn't work out what to do; could you rephrase?")
		}
		raw = fixed
	}

	res := gjson.Parse(raw)
	name := strings.TrimSpace(res.Get("action").String())
	if name == "" {
		return Action{}, errors.InvalidInput("I couldn't work out what to do; could you rephrase?")
	}
	return Action{Name: name, Params: res.Get("parameters")}, nil
}

// String returns the trimmed string parameter key, or "".
func (a Action) String(key string) string {
	return strings.TrimSpace(a.Params.Get(key).String())
}

// Int returns the integer parameter key, or def when it is absent.
func (a Action) Int(key string, def int) int {
	v := a.Params.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return int(v.Int())
}

// Strings returns a list parameter. A single string is treated as a
// comma-separated list.
func (a Action) Strings(key string) []string {
	v := a.Params.Get(key)
	var out []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		for _, s := range strings.Split(v.String(), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// jsonObject cuts the outermost {...} out of s, dropping prose or code
// fences around it.
func jsonObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 {
		return strings.TrimSpace(s)
	}
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}
