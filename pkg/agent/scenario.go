package agent

import (
	"log/slog"

	"github.com/lendwise/underwriter/pkg/models"
)

// LoadScenarioState decodes the structured state stored on a conversation.
// A malformed blob degrades to the zero state with a warning instead of
// failing the turn; the next completed turn overwrites the bad blob.
func LoadScenarioState(conv *models.Conversation) *models.ScenarioState {
	state, err := models.DecodeScenarioState(conv.ScenarioState)
	if err != nil {
		slog.Warn("Scenario state desync, degrading to no active intent",
			"conversation_id", conv.ID, "error", err)
		return &models.ScenarioState{ActiveIntent: models.IntentNone}
	}
	return state
}

// MergeParameters folds newly extracted parameters into the collected set.
// Collection is monotonic within an active scenario: a turn that omits a
// parameter never clears a previously collected value.
func MergeParameters(state *models.ScenarioState, extracted map[string]string) {
	if len(extracted) == 0 {
		return
	}
	if state.Collected == nil {
		state.Collected = make(map[string]string, len(extracted))
	}
	for k, v := range extracted {
		state.Collected[k] = v
	}
}
