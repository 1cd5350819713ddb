package models

import (
	"encoding/json"
	"fmt"
)

// ActiveIntent is the conversation's open intent, persisted as part of the
// structured scenario state. The prose summary mirrors it for LLM consumption
// but is never parsed to recover it.
type ActiveIntent string

const (
	IntentNone            ActiveIntent = "NONE"
	IntentScenario        ActiveIntent = "SCENARIO"
	IntentProgramSpecific ActiveIntent = "PROGRAM_SPECIFIC"
	IntentGeneral         ActiveIntent = "GENERAL"
)

// Scenario parameter names. A scenario is complete when all five are collected.
const (
	ParamFicoScore   = "fico_score"
	ParamLoanAmount  = "loan_amount"
	ParamLTV         = "ltv"
	ParamOccupancy   = "occupancy"
	ParamLoanPurpose = "loan_purpose"
)

// RequiredScenarioParameters is the full parameter set, in presentation order.
var RequiredScenarioParameters = []string{
	ParamFicoScore, ParamLoanAmount, ParamLTV, ParamOccupancy, ParamLoanPurpose,
}

// ScenarioState is the structured cross-turn routing record. It is stored as
// JSONB on the conversation row and rewritten after every turn.
type ScenarioState struct {
	ActiveIntent ActiveIntent      `json:"active_intent"`
	Collected    map[string]string `json:"collected,omitempty"`
	Program      string            `json:"program,omitempty"`
	Topic        string            `json:"topic,omitempty"`
}

// Missing returns the required scenario parameters not yet collected,
// in canonical order.
func (s *ScenarioState) Missing() []string {
	var missing []string
	for _, p := range RequiredScenarioParameters {
		if _, ok := s.Collected[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// AwaitingParameters reports whether the conversation is mid-collection.
func (s *ScenarioState) AwaitingParameters() bool {
	return s.ActiveIntent == IntentScenario && len(s.Missing()) > 0
}

// Complete reports whether all required scenario parameters are collected.
func (s *ScenarioState) Complete() bool {
	return s.ActiveIntent == IntentScenario && len(s.Missing()) == 0
}

// Encode serializes the state for persistence.
func (s *ScenarioState) Encode() (json.RawMessage, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scenario state: %w", err)
	}
	return raw, nil
}

// DecodeScenarioState parses a persisted state blob. An empty blob yields the
// zero state (no active intent). A malformed blob is an error; callers degrade
// to the zero state rather than failing the turn.
func DecodeScenarioState(raw json.RawMessage) (*ScenarioState, error) {
	if len(raw) == 0 {
		return &ScenarioState{ActiveIntent: IntentNone}, nil
	}
	var state ScenarioState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode scenario state: %w", err)
	}
	switch state.ActiveIntent {
	case IntentNone, IntentScenario, IntentProgramSpecific, IntentGeneral:
	case "":
		state.ActiveIntent = IntentNone
	default:
		return nil, fmt.Errorf("unknown active intent %q", state.ActiveIntent)
	}
	return &state, nil
}
