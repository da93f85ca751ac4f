package cortex

// Operation is a post-processing directive TheHive applies after a
// responder succeeds.
type Operation map[string]any

// NewOperation builds an operation of the given type with extra fields.
func NewOperation(kind string, fields map[string]any) Operation {
	op := Operation{"type": kind}
	for k, v := range fields {
		op[k] = v
	}
	return op
}

func AddTagToArtifact(tag string) Operation {
	return NewOperation("AddTagToArtifact", map[string]any{"tag": tag})
}

// AddCustomFields sets a custom field on the case. tpe is TheHive's field
// type name, e.g. "string".
func AddCustomFields(name, tpe string, value any) Operation {
	return NewOperation("AddCustomFields", map[string]any{"name": name, "tpe": tpe, "value": value})
}
