package logging

// Standardized field names for structured logging.
const (
	FieldRunID       = "run_id"
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldCategory    = "category"
	FieldSource      = "source"
	FieldPeriod      = "period"
	FieldCount       = "count"
	FieldAttempt     = "attempt"
	FieldMaxAttempts = "max_attempts"
	FieldTokens      = "tokens"
	FieldFile        = "file_path"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
)
