package observability

import (
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// InstrumentDB registers the GORM tracing plugin so every query becomes a
// child span of the request span carried in its context. Query arguments are
// not recorded; statements may contain e-mail addresses.
func InstrumentDB(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(
		tracing.WithoutMetrics(),
		tracing.WithoutQueryVariables(),
		tracing.WithAttributes(semconv.DBSystemSqlite),
	))
}
