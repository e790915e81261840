package intent

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/llm"
)

const systemPrompt = `You are an intent detection agent for a personal assistant.
You answer with exactly one label and nothing else.`

var promptTpl = template.Must(template.New("intent").Parse(`Classify the user input into one of the following labels.

Labels:
{{- range .Labels }}
- {{ .Name }}: {{ .Description }}
{{- end }}
- unknown: anything else, or input you cannot confidently classify

Respond with the label only.

User input: {{ .Input }}`))

type label struct {
	Name        Intent
	Description string
}

// Detector classifies utterances with a single completion call.
type Detector struct {
	provider llm.CompletionProvider
	labels   []label
	known    []Intent
	opts     llm.Options
	log      *slog.Logger
}

// NewDetector returns a Detector choosing among known. Descriptions come
// from the Descriptions map; intents without one are listed by name only.
// opts is used for every call; its Temperature defaults to 0. MaxTokens
// is left to the provider; reasoning models count hidden tokens against it.
func NewDetector(provider llm.CompletionProvider, opts llm.Options, known ...Intent) *Detector {
	if opts.Temperature == nil {
		opts.Temperature = llm.Float(0)
	}
	if opts.System == "" {
		opts.System = systemPrompt
	}

	d := &Detector{
		provider: provider,
		opts:     opts,
		log:      slog.Default().With("component", "intent"),
	}
	for _, k := range known {
		if k == Unknown || k == "" {
			continue
		}
		desc := Descriptions[k]
		if desc == "" {
			desc = string(k) + " requests"
		}
		d.labels = append(d.labels, label{Name: k, Description: desc})
		d.known = append(d.known, k)
	}
	return d
}

// Known returns the intents the detector can produce besides Unknown.
func (d *Detector) Known() []Intent {
	return append([]Intent(nil), d.known...)
}

// Detect classifies text. Output that is not exactly one known label
// yields Unknown rather than a guess.
func (d *Detector) Detect(ctx context.Context, text string) (Intent, error) {
	ctx, span := otel.Tracer("steward/intent").Start(ctx, "intent.Detect")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return Unknown, errors.InvalidInput("please enter a request")
	}

	prompt, err := d.prompt(text)
	if err != nil {
		return Unknown, errors.Wrapf(err, "could not render intent prompt")
	}

	out, err := d.provider.Complete(ctx, prompt, d.opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return Unknown, errors.Wrapf(err, "intent detection failed")
	}

	got := Parse(out, d.known)
	if got == Unknown {
		d.log.DebugContext(ctx, "unrecognised label", "output", out)
	}
	span.SetAttributes(attribute.String("intent", string(got)))
	return got, nil
}

func (d *Detector) prompt(input string) (string, error) {
	var buf bytes.Buffer
	err := promptTpl.Execute(&buf, struct {
		Labels []label
		Input  string
	}{d.labels, input})
	return buf.String(), err
}
