package router

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// pathsExploredCounter tallies the candidate OperationPaths resolve()
// considers for each field it plans, across both direct and indirect
// search. Like plancache's hit counter, it is resolved lazily against
// whatever metric.MeterProvider is registered globally, so planner never
// needs a provider threaded through its call chain.
var (
	pathsExploredOnce sync.Once
	pathsExploredCtr  metric.Int64Counter
)

func recordPathsExplored(n int) {
	pathsExploredOnce.Do(func() {
		c, err := otel.Meter("github.com/n9te9/hive-query-router/internal/router").Int64Counter(
			"planner.paths_explored",
			metric.WithDescription("candidate OperationPaths considered per field resolution"),
		)
		if err != nil {
			return
		}
		pathsExploredCtr = c
	})
	if pathsExploredCtr == nil {
		return
	}
	pathsExploredCtr.Add(context.Background(), int64(n))
}
