package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing attaches the otelgorm plugin so every GORM operation
// becomes a child span of the active request or service span. Query
// variables are never recorded; amounts and counterparty names stay out
// of trace storage.
func RegisterDBTracing(db *gorm.DB, dbSystem string, logger *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}
	logger.Info("Database tracing enabled", zap.String("db_system", dbSystem))
	return nil
}
