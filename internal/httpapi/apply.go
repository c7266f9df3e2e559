package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/driftworks/driftd/internal/runner"
)

// apply parses a plan from the request body, runs it and returns the run.
func (a *API) apply(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read_failed", err.Error())
		return
	}
	plan, err := decodePlanRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_plan", err.Error())
		return
	}

	run := a.runner.Apply(r.Context(), plan)
	writeJSON(w, http.StatusOK, run)
}

// decodePlanRequest accepts either the JSON envelope {"plan": ..., "test":
// bool} or a raw YAML plan document. The envelope's plan may itself be a
// YAML string or a structured document.
func decodePlanRequest(body []byte) (runner.Plan, error) {
	var envelope struct {
		Plan json.RawMessage `json:"plan"`
		Test *bool           `json:"test"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Plan != nil {
		doc := []byte(envelope.Plan)
		var inline string
		if err := json.Unmarshal(envelope.Plan, &inline); err == nil {
			doc = []byte(inline)
		}
		plan, err := runner.ParsePlan(doc)
		if err != nil {
			return runner.Plan{}, err
		}
		if envelope.Test != nil {
			plan.Test = *envelope.Test
		}
		return plan, nil
	}
	return runner.ParsePlan(body)
}
