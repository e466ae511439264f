package tracing

// Span attribute keys for document session tracing.
const (
	AttrSessionID    = "session.id"
	AttrSchemaID     = "schema.id"
	AttrPrevSchemaID = "schema.previous_id"
	AttrResourceURI  = "model.uri"
	AttrGeneration   = "model.generation"
	AttrFileName     = "file.name"
	AttrBytes        = "file.bytes"
	AttrSaveAsNew    = "save.as_new"
	AttrMarkerCount  = "markers.count"
	AttrOutcome      = "outcome"

	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Outcome values recorded under AttrOutcome.
const (
	OutcomeOK        = "ok"
	OutcomeCancelled = "cancelled"
	OutcomeBusy      = "busy"
	OutcomeFailed    = "failed"
)

// Span names.
const (
	SpanOpenFile     = "session.open_file"
	SpanSave         = "session.save"
	SpanSwitchSchema = "session.switch_schema"
	SpanLoadContent  = "session.load_content"
	SpanValidate     = "validate.run"
)
