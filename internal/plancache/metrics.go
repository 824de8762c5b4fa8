package plancache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// hitCounter records every Get as a hit or a miss, labeled by the "result"
// attribute. It is built lazily against whatever metric.MeterProvider is
// registered globally at the time of the first Get, so Cache never needs a
// reference to a provider itself. Nothing in this repository registers a
// MeterProvider (telemetry.InitTracer installs only a TracerProvider), so the
// counter stays a no-op unless the embedding process sets one.
var (
	hitCounterOnce sync.Once
	hitCounter     metric.Int64Counter
)

func recordCacheLookup(hit bool) {
	hitCounterOnce.Do(func() {
		c, err := otel.Meter("github.com/n9te9/hive-query-router/internal/plancache").Int64Counter(
			"plancache.hit_total",
			metric.WithDescription("plan cache lookups, partitioned by hit/miss outcome"),
		)
		if err != nil {
			return
		}
		hitCounter = c
	})
	if hitCounter == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	hitCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
}
