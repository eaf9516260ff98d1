package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Payload is the closed set of task parameter variants. Each built-in task
// type has its own struct; RawPayload covers types the worker does not know.
type Payload interface {
	// Kind returns the task type this payload belongs to
	Kind() Type
}

// VectorIndexPayload describes documents to add to a vector collection.
type VectorIndexPayload struct {
	Collection string   `json:"collection" validate:"required"`
	Documents  []string `json:"documents" validate:"required,min=1,dive,required"`
}

// Kind implements Payload.
func (VectorIndexPayload) Kind() Type { return TypeVectorIndex }

// ModelCachePayload names a model whose weights should be cached locally.
type ModelCachePayload struct {
	ModelID string `json:"model_id" validate:"required"`
}

// Kind implements Payload.
func (ModelCachePayload) Kind() Type { return TypeModelCache }

// DataCleanupPayload selects stale files for removal.
//
// Target is a directory relative to the worker's data directory. Files last
// modified more than OlderThan ago are removed.
type DataCleanupPayload struct {
	Target    string   `json:"target" validate:"required"`
	OlderThan Duration `json:"older_than"`
}

// Kind implements Payload.
func (DataCleanupPayload) Kind() Type { return TypeDataCleanup }

// HealthCheckPayload carries no parameters.
type HealthCheckPayload struct{}

// Kind implements Payload.
func (HealthCheckPayload) Kind() Type { return TypeHealthCheck }

// RawPayload holds the undecoded parameters of a task type the worker has no
// variant for. Such tasks can be submitted but are only dispatched if a
// handler was registered for Type.
type RawPayload struct {
	Type   Type
	Fields json.RawMessage
}

// Kind implements Payload.
func (p RawPayload) Kind() Type { return p.Type }

// Duration is a time.Duration that decodes from either a Go duration string
// ("15m") or a number of seconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value * float64(time.Second)))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

var payloadValidator = validator.New()

// DecodePayload turns a submitted type and JSON object into the matching
// payload variant. Unknown types decode to RawPayload so they can still be
// accounted for by the processor.
func DecodePayload(taskType Type, raw json.RawMessage) (Payload, error) {
	if taskType == "" {
		return nil, ErrMissingType
	}
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	var payload Payload
	switch taskType {
	case TypeVectorIndex:
		var p VectorIndexPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		payload = p
	case TypeModelCache:
		var p ModelCachePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		payload = p
	case TypeDataCleanup:
		var p DataCleanupPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		payload = p
	case TypeHealthCheck:
		payload = HealthCheckPayload{}
	default:
		return RawPayload{Type: taskType, Fields: raw}, nil
	}

	if err := payloadValidator.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return payload, nil
}
