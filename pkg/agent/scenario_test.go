package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lendwise/underwriter/pkg/models"
)

func TestLoadScenarioStateEmpty(t *testing.T) {
	state := LoadScenarioState(&models.Conversation{ID: "c1"})
	assert.Equal(t, models.IntentNone, state.ActiveIntent)
	assert.False(t, state.AwaitingParameters())
}

func TestLoadScenarioStateRoundTrip(t *testing.T) {
	original := &models.ScenarioState{
		ActiveIntent: models.IntentScenario,
		Collected:    map[string]string{models.ParamFicoScore: "740"},
	}
	raw, err := original.Encode()
	assert.NoError(t, err)

	state := LoadScenarioState(&models.Conversation{ID: "c1", ScenarioState: raw})
	assert.Equal(t, models.IntentScenario, state.ActiveIntent)
	assert.Equal(t, "740", state.Collected[models.ParamFicoScore])
	assert.True(t, state.AwaitingParameters())
}

func TestLoadScenarioStateDegradesOnMalformedBlob(t *testing.T) {
	// A turn must not fail because a past write was corrupted.
	for _, raw := range []string{`{not json`, `{"active_intent":"BOGUS"}`} {
		state := LoadScenarioState(&models.Conversation{
			ID:            "c1",
			ScenarioState: json.RawMessage(raw),
		})
		assert.Equal(t, models.IntentNone, state.ActiveIntent, "blob %q", raw)
	}
}

func TestMergeParametersMonotonic(t *testing.T) {
	state := &models.ScenarioState{
		ActiveIntent: models.IntentScenario,
		Collected:    map[string]string{models.ParamFicoScore: "740"},
	}

	// A turn that omits fico does not clear it.
	MergeParameters(state, map[string]string{models.ParamLTV: "75"})
	assert.Equal(t, "740", state.Collected[models.ParamFicoScore])
	assert.Equal(t, "75", state.Collected[models.ParamLTV])

	// A turn that restates fico overwrites it.
	MergeParameters(state, map[string]string{models.ParamFicoScore: "760"})
	assert.Equal(t, "760", state.Collected[models.ParamFicoScore])
}

func TestMergeParametersNilMap(t *testing.T) {
	state := &models.ScenarioState{ActiveIntent: models.IntentScenario}
	MergeParameters(state, map[string]string{models.ParamFicoScore: "740"})
	assert.Equal(t, "740", state.Collected[models.ParamFicoScore])
}

func TestMissingOrder(t *testing.T) {
	state := &models.ScenarioState{
		ActiveIntent: models.IntentScenario,
		Collected: map[string]string{
			models.ParamLTV:       "75",
			models.ParamOccupancy: "PRIMARY",
		},
	}
	assert.Equal(t,
		[]string{models.ParamFicoScore, models.ParamLoanAmount, models.ParamLoanPurpose},
		state.Missing())
}
