package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

func TestStateManager_Lifecycle(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("DecisionTreeClassifier", "Predict")
	var nf *scigoErrors.NotFittedError
	require.True(t, scigoErrors.As(err, &nf))
	assert.Equal(t, "Predict", nf.Method)

	s.SetDimensions(3, 10)
	s.SetFitted()
	assert.NoError(t, s.RequireFitted("DecisionTreeClassifier", "Predict"))
	assert.NoError(t, s.RequireFeatures("Predict", 3))

	var dimErr *scigoErrors.DimensionError
	assert.True(t, scigoErrors.As(s.RequireFeatures("Predict", 2), &dimErr))

	state := s.GetState()
	assert.Equal(t, ModelState{Fitted: true, NFeatures: 3, NSamples: 10}, state)

	s.Reset()
	assert.False(t, s.IsFitted())
	s.SetState(state)
	nf2, ns := s.GetDimensions()
	assert.Equal(t, 3, nf2)
	assert.Equal(t, 10, ns)
}

func TestModelEnvelope_Validate(t *testing.T) {
	env := ModelEnvelope{
		ModelType: "DecisionTreeRegressor",
		Version:   EnvelopeVersion,
		State:     ModelState{Fitted: true},
		Payload:   json.RawMessage(`{}`),
	}
	assert.NoError(t, env.Validate("DecisionTreeRegressor"))
	assert.Error(t, env.Validate("DecisionTreeClassifier"))

	env.Payload = nil
	assert.Error(t, env.Validate("DecisionTreeRegressor"))

	env.State.Fitted = false
	assert.NoError(t, env.Validate("DecisionTreeRegressor"))

	env.Version = "0"
	assert.Error(t, env.Validate("DecisionTreeRegressor"))
}
