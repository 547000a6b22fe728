package idchannel

import "go.opentelemetry.io/otel"

// tracer is package-scoped, matching the teacher's vertex.go convention
// of a module-level otel var rather than threading a Tracer through
// every call.
var tracer = otel.Tracer("github.com/vesselfabric/vessels/idchannel")
