package responder

import (
	"encoding/json"

	"github.com/joshsymonds/gmail-responder/internal/cortex"
	"github.com/joshsymonds/gmail-responder/internal/gmail"
)

const (
	TagBlocked       = "gmail:blocked"
	TagUnblocked     = "gmail:unblocked"
	FiltersField     = "gmailFilters"
	FiltersFieldType = "string"

	MessageAdded   = "Added filters"
	MessageRemoved = "Removed filters"
)

// Registry accumulates the filter ids created during one run, in call order.
type Registry struct {
	ids []gmail.FilterID
}

func (r *Registry) Add(id gmail.FilterID) { r.ids = append(r.ids, id) }

func (r *Registry) Len() int { return len(r.ids) }

// IDs returns a copy of the registered ids, never nil.
func (r *Registry) IDs() []gmail.FilterID {
	out := make([]gmail.FilterID, len(r.ids))
	copy(out, r.ids)
	return out
}

// JSON renders the registry as a compact JSON array.
func (r *Registry) JSON() string {
	data, _ := json.Marshal(r.IDs())
	return string(data)
}

// Report is the outcome of a successful run.
type Report struct {
	Message string
	Tag     string
	Filters Registry
	Owners  map[string]gmail.FilterID
	Removed []gmail.FilterID
}

// Full is the human-facing part of the Cortex envelope.
func (r *Report) Full() map[string]any {
	full := map[string]any{
		"message": r.Message,
		"filters": r.Filters.IDs(),
	}
	if len(r.Owners) > 0 {
		full["owners"] = r.Owners
	}
	if r.Removed != nil {
		full["removed"] = r.Removed
	}
	return full
}

// Operations tags the artifact and stores the created filter ids on the case.
func (r *Report) Operations() []cortex.Operation {
	return []cortex.Operation{
		cortex.AddTagToArtifact(r.Tag),
		cortex.AddCustomFields(FiltersField, FiltersFieldType, r.Filters.JSON()),
	}
}
