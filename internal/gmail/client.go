package gmail

import "context"

// Client is the narrow Gmail surface required by the responder. A Client is
// bound to a single mailbox owner.
type Client interface {
	Subject() string
	TrashMessage(ctx context.Context, id MessageID) error
	CreateFilter(ctx context.Context, q Query, action FilterAction) (FilterID, error)
	DeleteFilter(ctx context.Context, id FilterID) error
	ListFilters(ctx context.Context) ([]Filter, error)
}
