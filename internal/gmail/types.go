// internal/gmail/types.go
package gmail

type (
	MessageID string
	LabelID   string
	FilterID  string
)

// System labels used by block filters.
const (
	LabelTrash LabelID = "TRASH"
	LabelInbox LabelID = "INBOX"
)

// Filter represents a server-side Gmail filter.
type Filter struct {
	ID       FilterID
	Criteria FilterCriteria
	Action   FilterAction
}

// FilterCriteria captures the subset of Gmail search predicates we create.
type FilterCriteria struct {
	Query string
}

// FilterAction describes the label changes applied to matching messages.
type FilterAction struct {
	AddLabels    []LabelID
	RemoveLabels []LabelID
}

// BlockAction trashes matching mail and keeps it out of the inbox.
func BlockAction() FilterAction {
	return FilterAction{
		AddLabels:    []LabelID{LabelTrash},
		RemoveLabels: []LabelID{LabelInbox},
	}
}

type Query struct {
	Raw string // Gmail query string, already formed (e.g., `from: evil.example OR from: spam@example.com`)
}

func (q Query) Empty() bool { return q.Raw == "" }
