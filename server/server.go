// Package server exposes a router.Pipeline over HTTP: a single POST
// endpoint accepting a GraphQL request body and returning either the
// QueryPlan wire JSON or the structured authorization error shape, the
// same shape server/gateway.go serves for its own (subgraph-dispatching)
// gateway, adapted here to stop at planning rather than execution.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/n9te9/hive-query-router/internal/authz"
	"github.com/n9te9/hive-query-router/internal/router"
)

// requestIDHeader carries the per-request correlation id the gateway's own
// enableComplementRequestId setting gestured at but never wired up; this
// router actually attaches one to every response and log line.
const requestIDHeader = "X-Request-Id"

// Handler serves QueryPlan responses for a single router.Pipeline.
type Handler struct {
	Pipeline *router.Pipeline
}

var _ http.Handler = (*Handler)(nil)

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	w.Header().Set(requestIDHeader, requestID)
	log := slog.Default().With("request_id", requestID)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("malformed graphql request body", "error", err)
		writeValidationError(w, err)
		return
	}

	result, err := h.Pipeline.Handle(r.Context(), req.Query, req.OperationName, req.Variables, jwtStateFromRequest(r))
	if err != nil {
		log.Warn("request failed", "operation", req.OperationName, "error", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(planResponse(result))
}

// requestIDFor returns the caller-supplied X-Request-Id if present, so a
// correlation id set by an upstream edge survives end to end, otherwise
// mints a fresh one.
func requestIDFor(r *http.Request) string {
	if id := r.Header.Get(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

// planResponse renders the §6 QueryPlan wire object, folding in any Filter-
// mode authorization errors alongside the (partial) plan rather than
// dropping them — Filter mode's whole point is serving both together.
func planResponse(result *router.Result) map[string]any {
	body := map[string]any{"kind": "QueryPlan", "node": result.Plan.Node}
	if len(result.Errors) > 0 {
		body["errors"] = authorizationErrorBody(result.Errors)
	}
	return body
}

// jwtStateFromRequest extracts an authz.JWTState from the request's bearer
// token. Verifying the token's signature is out of scope here (§1: "JWT
// parsing" is an external collaborator) — by the time a request reaches
// this router it is assumed to have already passed through whatever edge
// authenticated it, so only the already-trusted claims are read out.
func jwtStateFromRequest(r *http.Request) authz.JWTState {
	tokenString := bearerToken(r)
	if tokenString == "" {
		return authz.JWTState{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return authz.JWTState{}
	}

	return authz.JWTState{Authenticated: true, Scopes: scopesFromClaims(claims)}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

// scopesFromClaims reads a "scope" claim (a space-delimited string, per
// RFC 8693) or a "scopes" claim (a JSON array), whichever is present.
func scopesFromClaims(claims jwt.MapClaims) []string {
	if scope, ok := claims["scope"].(string); ok && scope != "" {
		return strings.Fields(scope)
	}
	if raw, ok := claims["scopes"].([]any); ok {
		scopes := make([]string, 0, len(raw))
		for _, s := range raw {
			if str, ok := s.(string); ok {
				scopes = append(scopes, str)
			}
		}
		return scopes
	}
	return nil
}

// writeError translates a router error into the §6/§7 wire shape and
// status code.
func writeError(w http.ResponseWriter, err error) {
	var reject *router.RejectError
	var validation *router.ValidationError
	var planner *router.PlannerFailure

	switch {
	case errors.As(err, &reject):
		writeAuthorizationErrors(w, http.StatusForbidden, reject.Errors)
	case errors.As(err, &validation):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(genericErrorBody(validation.Error()))
	case errors.As(err, &planner):
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(genericErrorBody("internal planner error"))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		w.WriteHeader(http.StatusRequestTimeout)
		json.NewEncoder(w).Encode(genericErrorBody(err.Error()))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(genericErrorBody(err.Error()))
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(genericErrorBody(err.Error()))
}

// writeAuthorizationErrors renders the §6 UNAUTHORIZED_FIELD_OR_TYPE wire
// shape at the given status (403 in Reject mode; callers that reach a
// Plan at all with partial errors write 200 with the plan body and these
// errors alongside it instead, handled by the caller).
func writeAuthorizationErrors(w http.ResponseWriter, status int, errs []authz.Error) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"errors": authorizationErrorBody(errs)})
}

// authorizationErrorBody renders the §6 UNAUTHORIZED_FIELD_OR_TYPE error
// entries for errs.
func authorizationErrorBody(errs []authz.Error) []map[string]any {
	body := make([]map[string]any, 0, len(errs))
	for _, e := range errs {
		body = append(body, map[string]any{
			"message": "Unauthorized field or type",
			"extensions": map[string]string{
				"code":         e.Code,
				"affectedPath": e.AffectedPath,
			},
		})
	}
	return body
}

func genericErrorBody(message string) map[string]any {
	return map[string]any{"errors": []map[string]any{{"message": message}}}
}
