package model

import (
	"encoding/json"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// EnvelopeVersion is written into every envelope. Decoders reject other
// versions rather than guessing at field meanings.
const EnvelopeVersion = "1"

// ModelEnvelope is the JSON form of a fitted estimator: its type,
// hyperparameters and fitted state, plus the model-specific payload.
type ModelEnvelope struct {
	ModelType       string                 `json:"model_type"`
	Version         string                 `json:"version"`
	Hyperparameters map[string]interface{} `json:"hyperparameters"`
	State           ModelState             `json:"state"`
	Classes         []int                  `json:"classes,omitempty"`
	Payload         json.RawMessage        `json:"payload,omitempty"`
}

// Validate checks that the envelope belongs to modelType and is
// internally consistent.
func (e *ModelEnvelope) Validate(modelType string) error {
	if e.ModelType != modelType {
		return scigoErrors.NewValueError("ModelEnvelope.Validate", "model_type is "+e.ModelType+", want "+modelType)
	}
	if e.Version != EnvelopeVersion {
		return scigoErrors.NewValueError("ModelEnvelope.Validate", "unsupported version "+e.Version)
	}
	if e.State.Fitted && len(e.Payload) == 0 {
		return scigoErrors.NewValueError("ModelEnvelope.Validate", "fitted model must carry a payload")
	}
	if !e.State.Fitted && len(e.Payload) > 0 {
		return scigoErrors.NewValueError("ModelEnvelope.Validate", "unfitted model should not carry a payload")
	}
	return nil
}
