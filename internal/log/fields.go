package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldMonth         = "month"
	FieldTemplateID    = "template_id"
	FieldCategoryID    = "category_id"
	FieldTransactionID = "transaction_id"
	FieldAmountCents   = "amount_cents"
	FieldCreated       = "created"
	FieldVersion       = "version"
	FieldDuration      = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentSession      = "session"
	ComponentMaterializer = "materializer"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentBackend      = "backend"
)

// Operations defines standard operation names
const (
	OpLoad        = "load"
	OpSave        = "save"
	OpClear       = "clear"
	OpMaterialize = "materialize"
	OpPublish     = "publish"
	OpStartup     = "startup"
	OpShutdown    = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error message; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithVersion(v int64) LogFields {
	f[FieldVersion] = v
	return f
}

func (f LogFields) WithDurationMs(ms int64) LogFields {
	f[FieldDuration] = ms
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
