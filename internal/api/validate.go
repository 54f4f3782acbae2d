package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/querygate/querygate/internal/auth"
	"github.com/querygate/querygate/internal/pipeline"
)

type validateRequest struct {
	SQL            string          `json:"sql"`
	Dialect        string          `json:"dialect"`
	SchemaMetadata json.RawMessage `json:"schema_metadata"`
}

func handleValidate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "query pipeline is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryValidator); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request validateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid validate request body", false, map[string]any{"details": err.Error()})
		return
	}

	response, err := deps.Pipeline.Validate(r.Context(), request.SQL, request.SchemaMetadata, request.Dialect)
	if err != nil {
		writePipelineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func pipelineRequest(request queryRequest) pipeline.Request {
	return pipeline.Request{
		Question:       request.Question,
		Dialect:        request.Dialect,
		SchemaMetadata: request.SchemaMetadata,
	}
}

// requireRole enforces role membership only when an authenticated identity is
// present; with auth disabled requests pass through.
func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}
