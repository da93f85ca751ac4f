// internal/runtime/googleapi.go adapts *gmail.Service to our small interface
package runtime

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/gmail-responder/internal/gmail"
	"github.com/joshsymonds/gmail-responder/internal/rate"
)

type googleClient struct {
	svc     *gmail.Service
	subject string
	userID  string
	limiter rate.Limiter
}

// NewGoogleAPIClient binds svc to the mailbox of subject. userID is the Gmail
// API user path segment, either the subject address itself or "me".
func NewGoogleAPIClient(svc *gmail.Service, subject, userID string, limiter rate.Limiter) gc.Client {
	return &googleClient{svc: svc, subject: subject, userID: userID, limiter: rate.OrUnlimited(limiter)}
}

func (g *googleClient) Subject() string { return g.subject }

func (g *googleClient) TrashMessage(ctx context.Context, id gc.MessageID) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := g.svc.Users.Messages.Trash(g.userID, string(id)).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "trash message %s for %s", id, g.subject)
	}
	return nil
}

func (g *googleClient) CreateFilter(ctx context.Context, q gc.Query, action gc.FilterAction) (gc.FilterID, error) {
	if q.Empty() {
		return "", errors.Newf("refusing to create filter with empty query for %s", g.subject)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	body := &gmail.Filter{
		Criteria: &gmail.FilterCriteria{Query: q.Raw},
		Action: &gmail.FilterAction{
			AddLabelIds:    toStrings(action.AddLabels),
			RemoveLabelIds: toStrings(action.RemoveLabels),
		},
	}
	created, err := g.svc.Users.Settings.Filters.Create(g.userID, body).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrapf(err, "create filter for %s", g.subject)
	}
	return gc.FilterID(created.Id), nil
}

func (g *googleClient) DeleteFilter(ctx context.Context, id gc.FilterID) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := g.svc.Users.Settings.Filters.Delete(g.userID, string(id)).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "delete filter %s for %s", id, g.subject)
	}
	return nil
}

func (g *googleClient) ListFilters(ctx context.Context) ([]gc.Filter, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := g.svc.Users.Settings.Filters.List(g.userID).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "list filters for %s", g.subject)
	}
	out := make([]gc.Filter, 0, len(res.Filter))
	for _, f := range res.Filter {
		out = append(out, fromAPIFilter(f))
	}
	return out, nil
}

func fromAPIFilter(f *gmail.Filter) gc.Filter {
	out := gc.Filter{ID: gc.FilterID(f.Id)}
	if f.Criteria != nil {
		out.Criteria = gc.FilterCriteria{Query: f.Criteria.Query}
	}
	if f.Action != nil {
		out.Action = gc.FilterAction{
			AddLabels:    toLabelIDs(f.Action.AddLabelIds),
			RemoveLabels: toLabelIDs(f.Action.RemoveLabelIds),
		}
	}
	return out
}

func toStrings(ids []gc.LabelID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func toLabelIDs(ids []string) []gc.LabelID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]gc.LabelID, len(ids))
	for i, id := range ids {
		out[i] = gc.LabelID(id)
	}
	return out
}
