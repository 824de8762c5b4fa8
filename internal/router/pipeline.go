// Package router orchestrates one request end-to-end: normalize the raw
// operation, authorize it against a JWT, plan a fetch graph across the
// supergraph, and serialize the result — in the strict order the planner
// requires, with a shared plan cache and a cooperative cancellation/
// timeout budget.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/n9te9/graphql-parser/ast"

	"github.com/n9te9/hive-query-router/internal/authz"
	"github.com/n9te9/hive-query-router/internal/fetchplan"
	"github.com/n9te9/hive-query-router/internal/loader"
	"github.com/n9te9/hive-query-router/internal/normalize"
	"github.com/n9te9/hive-query-router/internal/plancache"
	"github.com/n9te9/hive-query-router/internal/planserialize"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// Result is what Handle returns: the serialized plan plus any
// authorization errors (Filter mode keeps planning partial data; Reject
// mode never reaches a Plan at all).
type Result struct {
	Plan   planserialize.Plan
	Errors []authz.Error
}

// Pipeline runs the normalize -> authorize -> plan -> serialize sequence
// against one supergraph version, sharing a plan cache across requests.
type Pipeline struct {
	Source         *loader.Source
	Cache          *plancache.Cache[Result]
	AuthMode       authz.Mode
	PlannerTimeout time.Duration // zero disables the soft wall-clock budget
}

// Handle plans rawOperation end to end. A non-nil error is either a
// *ValidationError (bad operation/variables, 400), a *RejectError carrying
// the authorization errors (403, use errors.As), a *PlannerFailure (500), or
// a context error (cancellation/timeout).
func (p *Pipeline) Handle(ctx context.Context, rawOperation, operationName string, variables map[string]any, jwt authz.JWTState) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	version := p.Source.Current()
	if version == nil {
		return nil, &ValidationError{Err: fmt.Errorf("no supergraph version loaded yet")}
	}

	normResult, err := normalize.Normalize(rawOperation, operationName, variables, version.Consumer)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	operation, authErrors, err := p.authorize(normResult.Operation, version.AuthMetadata, jwt)
	if err != nil {
		return nil, err
	}

	key := normalize.CacheKey(&normalize.Result{Operation: operation, Variables: normResult.Variables})
	if cached, ok := p.Cache.Get(key); ok {
		return &cached, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	planCtx := ctx
	if p.PlannerTimeout > 0 {
		var cancel context.CancelFunc
		planCtx, cancel = context.WithTimeout(ctx, p.PlannerTimeout)
		defer cancel()
	}

	rootKind := rootKindFor(operation.Operation)
	rootNode, ok := version.Satisfiability.RootNode(rootKind)
	if !ok {
		return nil, &PlannerFailure{Kind: Unsatisfiable, Path: "", Err: fmt.Errorf("no %s root in supergraph", operation.Operation)}
	}

	pl := &planner{graph: version.Satisfiability}
	tree, err := pl.planOperation(planCtx, operation, rootNode)
	if err != nil {
		return nil, err
	}

	fg := fetchplan.Build(version.Satisfiability, tree)
	if err := planCtx.Err(); err != nil {
		return nil, err
	}
	fetchplan.Optimize(fg, operation.Operation == ast.Mutation)

	result := Result{Plan: planserialize.Build(fg, operationKindString(operation.Operation)), Errors: authErrors}
	p.Cache.Put(key, result)
	return &result, nil
}

// authorize runs authz.Filter and translates its Outcome into the
// operation to plan plus any errors to surface, or a rejection error.
func (p *Pipeline) authorize(op *ast.OperationDefinition, meta *authz.Metadata, jwt authz.JWTState) (*ast.OperationDefinition, []authz.Error, error) {
	outcome, err := authz.Filter(op, meta, jwt, p.AuthMode)
	if err != nil {
		return nil, nil, fmt.Errorf("router: authorize: %w", err)
	}
	switch o := outcome.(type) {
	case authz.NoChange:
		return op, nil, nil
	case authz.Modified:
		return o.Operation, o.Errors, nil
	case authz.Reject:
		return nil, nil, &RejectError{Errors: o.Errors}
	default:
		return nil, nil, fmt.Errorf("router: unknown authorization outcome %T", outcome)
	}
}

// RejectError means the whole operation was rejected under Reject mode
// (§6: surfaced as HTTP 403 with the structured UNAUTHORIZED_FIELD_OR_TYPE
// error body).
type RejectError struct {
	Errors []authz.Error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("router: rejected, %d unauthorized field(s)", len(e.Errors))
}

func rootKindFor(op ast.OperationType) supergraph.RootKind {
	switch op {
	case ast.Mutation:
		return supergraph.RootMutation
	case ast.Subscription:
		return supergraph.RootSubscription
	default:
		return supergraph.RootQuery
	}
}

func operationKindString(op ast.OperationType) string {
	switch op {
	case ast.Mutation:
		return "mutation"
	case ast.Subscription:
		return "subscription"
	default:
		return "query"
	}
}
