package fork

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter and instruments, matching the teacher's vertex.go
// convention of module-scoped otel vars rather than injecting a meter
// through every call site.
var (
	meter = otel.Meter("github.com/vesselfabric/vessels/fork")

	forksCreated, _ = meter.Int64Counter(
		"vessels.fork.created",
		metric.WithDescription("fork handles allocated by a Context, including recycled handles"),
	)
	forksReleased, _ = meter.Int64Counter(
		"vessels.fork.released",
		metric.WithDescription("fork handles released back to a Context's free list"),
	)
)

func recordCreate() {
	forksCreated.Add(context.Background(), 1)
}

func recordRelease() {
	forksReleased.Add(context.Background(), 1)
}
