// Package structured requests JSON output from a model and decodes it into a
// typed value after validating it against constraints reflected from the
// type's struct tags.
package structured

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/internal/util"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/model"
)

// ValidationError reports the field and constraint a response violated.
type ValidationError = util.ValidationError

// ErrNoJSON is returned when a response contains no JSON object.
var ErrNoJSON = errors.New("response contains no JSON object")

// Options configures Invoke.
type Options struct {
	// Retries is the number of corrective re-prompts after an invalid response.
	Retries int
	// Instructions is sent as the system prompt.
	Instructions string
	// Logger receives validation failures.
	Logger logging.Logger
}

// WithRetries re-prompts up to n times with the validation error.
func WithRetries(n int) func(o *Options) {
	return func(o *Options) { o.Retries = n }
}

// WithInstructions sets the system prompt of the request.
func WithInstructions(text string) func(o *Options) {
	return func(o *Options) { o.Instructions = text }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Invoke asks m for a JSON object shaped like T, validates it and decodes it.
// Validation failures return *ValidationError; model failures are returned
// wrapped and are not re-prompted.
func Invoke[T any](ctx context.Context, m model.Model, messages []core.Message, optFns ...func(o *Options)) (T, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var zero T

	schema := SchemaOf[T]()
	history := append([]core.Message(nil), messages...)

	for attempt := 0; ; attempt++ {
		resp, err := model.Collect(ctx, m, model.Request{
			Instructions:   opts.Instructions,
			Messages:       history,
			ResponseFormat: &model.ResponseFormat{JSON: true, Schema: schema},
		})
		if err != nil {
			return zero, fmt.Errorf("structured call: %w", err)
		}

		text := resp.Message.Text()

		out, err := decode[T](text, schema)
		if err == nil {
			return out, nil
		}

		opts.Logger.Warn("structured.validation_failed", "attempt", attempt+1, "error", err.Error())

		if attempt >= opts.Retries {
			return zero, err
		}

		history = append(history,
			core.NewAssistantMessage(text),
			core.NewHumanMessage(correction(err)),
		)
	}
}

// SchemaOf reflects the JSON schema of T.
func SchemaOf[T any]() map[string]any {
	var zero T
	return util.CreateSchema(zero)
}

// Decode validates text against the schema of T and decodes it.
func Decode[T any](text string) (T, error) {
	return decode[T](text, SchemaOf[T]())
}

func decode[T any](text string, schema map[string]any) (T, error) {
	var out T

	obj, err := ExtractJSON(text)
	if err != nil {
		return out, &ValidationError{Constraint: "json", Value: truncate(text, 200), Message: err.Error()}
	}

	if err := util.ValidateParameters(obj, schema); err != nil {
		return out, err
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return out, fmt.Errorf("re-encode response: %w", err)
	}

	if err := json.Unmarshal(b, &out); err != nil {
		return out, &ValidationError{Constraint: "type", Message: err.Error()}
	}

	return out, nil
}

// ExtractJSON returns the first JSON object embedded in text. Markdown code
// fences and surrounding prose are tolerated.
func ExtractJSON(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)

	for i := strings.IndexByte(text, '{'); i >= 0; {
		var obj map[string]any
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&obj); err == nil && obj != nil {
			return obj, nil
		}

		next := strings.IndexByte(text[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}

	return nil, ErrNoJSON
}

func correction(err error) string {
	return fmt.Sprintf(
		"Your previous response was invalid: %v. Respond again with a single corrected JSON object that satisfies every constraint.",
		err,
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
