package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/driftworks/driftd/internal/modules"
)

// listFunctions returns the registered module functions.
func (a *API) listFunctions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.registry.Functions()})
}

// listStates returns the registered states.
func (a *API) listStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.registry.States()})
}

// callFunction invokes one module function with a JSON argument object.
// An empty body means no arguments.
func (a *API) callFunction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "function")
	args := modules.Args{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}

	result, err := a.registry.Call(r.Context(), name, args)
	if a.metrics != nil {
		a.metrics.RecordFunctionCall(name, err)
	}
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"return": result})
}

// writeCallError maps registry errors onto the call endpoint's status codes:
// invocation error 400, unavailable module 409, unknown function 404,
// endpoint failure 502.
func writeCallError(w http.ResponseWriter, err error) {
	if inv, ok := modules.AsInvocation(err); ok {
		writeError(w, http.StatusBadRequest, "invalid_argument", inv.Error())
		return
	}
	var unavailable *modules.UnavailableError
	if errors.As(err, &unavailable) {
		writeError(w, http.StatusConflict, "module_unavailable", unavailable.Error())
		return
	}
	if errors.Is(err, modules.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "call_failed", err.Error())
}
