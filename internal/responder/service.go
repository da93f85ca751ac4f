package responder

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/joshsymonds/gmail-responder/internal/gmail"
	"github.com/joshsymonds/gmail-responder/internal/thehive"
)

const (
	caseType         = "case"
	domainDataType   = "domain"
	mailDataType     = "mail"
	ownerMarker      = "gmail"
	ownerQuerySuffix = "gmail.com"
)

// Authenticator yields a Gmail client acting as the delegated subject.
type Authenticator interface {
	Authenticate(ctx context.Context, subject string) (gmail.Client, error)
}

// Backend is the TheHive surface the responder reads from.
type Backend interface {
	Health(ctx context.Context) error
	CaseObservables(ctx context.Context, caseID string, q thehive.Query) ([]thehive.Observable, error)
}

// Service dispatches one responder run.
type Service struct {
	Hive   Backend
	Auth   Authenticator
	Logger *slog.Logger
	DryRun bool
}

// NewService constructs a Service with sane defaults.
func NewService(hive Backend, auth Authenticator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{Hive: hive, Auth: auth, Logger: logger}
}

// target is what a flow resolved from its input: the filter query and the
// mailboxes to apply it to.
type target struct {
	query  gmail.Query
	owners []string
}

// Run checks TheHive connectivity, then executes the named action.
func (s *Service) Run(ctx context.Context, service string, in Input) (Report, error) {
	if err := s.Hive.Health(ctx); err != nil {
		return Report{}, errors.Mark(
			errors.Wrap(err, "Responder needs TheHive connection but failed"),
			ErrConnectivity,
		)
	}

	action, err := ParseAction(service)
	if err != nil {
		return Report{}, err
	}
	s.Logger.InfoContext(ctx, "dispatching", slog.String("action", action.String()), slog.Bool("dry_run", s.DryRun))

	var tgt target
	switch action {
	case ActionBlockSender, ActionUnblockSender:
		tgt, err = s.resolveSender(ctx, service, in)
	case ActionBlockDomain, ActionUnblockDomain:
		tgt, err = s.resolveDomain(ctx, service, in)
	default:
		return Report{}, errors.Mark(errors.Newf("service named %s not found.", service), ErrUnknownAction)
	}
	if err != nil {
		return Report{}, err
	}

	if action == ActionUnblockSender || action == ActionUnblockDomain {
		return s.unblock(ctx, tgt)
	}
	return s.block(ctx, tgt)
}

// resolveSender targets a case: IOC mail observables become the query and
// non-IOC gmail addresses are the protected owners.
func (s *Service) resolveSender(ctx context.Context, service string, in Input) (target, error) {
	if in.Type != caseType {
		return target{}, invalidInput(
			"Responder with service %s needs %s as input but got %s", service, caseType, in.Type,
		)
	}
	if in.ID == "" {
		return target{}, invalidInput("Responder with service %s needs a case id", service)
	}

	observables, err := s.Hive.CaseObservables(ctx, in.ID, nil)
	if err != nil {
		return target{}, backendError(err)
	}

	var (
		senders []gmail.Query
		owners  []string
	)
	for _, o := range observables {
		value := strings.TrimSpace(o.Data)
		if o.DataType != mailDataType || value == "" {
			continue
		}
		if o.IOC {
			senders = append(senders, gmail.FromQuery(value))
			continue
		}
		if strings.Contains(value, ownerMarker) {
			owners = append(owners, value)
		}
	}
	if len(senders) == 0 {
		return target{}, invalidInput("case %s has no mail observables flagged as IOC", in.ID)
	}
	return target{query: gmail.JoinOr(senders...), owners: dedupe(owners)}, nil
}

// resolveDomain targets a domain observable: every gmail address in the
// parent case is an owner.
func (s *Service) resolveDomain(ctx context.Context, service string, in Input) (target, error) {
	if in.DataType != domainDataType {
		return target{}, invalidInput("%s needs data of type '%s' but %s given", service, domainDataType, in.DataType)
	}
	domain := strings.TrimSpace(in.Data)
	if domain == "" {
		return target{}, invalidInput("%s needs a domain value", service)
	}
	if in.Parent == "" {
		return target{}, invalidInput("%s needs the parent case of the observable", service)
	}

	observables, err := s.Hive.CaseObservables(ctx, in.Parent, thehive.And(
		thehive.Eq("dataType", mailDataType),
		thehive.EndsWith("data", ownerQuerySuffix),
	))
	if err != nil {
		return target{}, backendError(err)
	}
	owners := make([]string, 0, len(observables))
	for _, o := range observables {
		if v := strings.TrimSpace(o.Data); v != "" {
			owners = append(owners, v)
		}
	}
	return target{query: gmail.FromQuery(domain), owners: dedupe(owners)}, nil
}

// block feeds gmailFilters for both the sender and domain flows.
func (s *Service) block(ctx context.Context, tgt target) (Report, error) {
	rep := Report{Message: MessageAdded, Tag: TagBlocked, Owners: map[string]gmail.FilterID{}}
	if len(tgt.owners) == 0 {
		s.Logger.WarnContext(ctx, "no gmail mailboxes to protect", slog.String("query", tgt.query.Raw))
	}
	for _, owner := range tgt.owners {
		client, err := s.Auth.Authenticate(ctx, owner)
		if err != nil {
			return Report{}, errors.Wrapf(err, "authenticate %s", owner)
		}
		if s.DryRun {
			s.Logger.InfoContext(ctx, "dry-run", slog.String("subject", owner), slog.String("query", tgt.query.Raw))
			continue
		}
		id, err := client.CreateFilter(ctx, tgt.query, gmail.BlockAction())
		if err != nil {
			return Report{}, err
		}
		s.Logger.InfoContext(ctx, "created filter",
			slog.String("subject", owner),
			slog.String("filter", string(id)),
			slog.String("query", tgt.query.Raw),
		)
		rep.Filters.Add(id)
		rep.Owners[owner] = id
	}
	return rep, nil
}

func (s *Service) unblock(ctx context.Context, tgt target) (Report, error) {
	rep := Report{Message: MessageRemoved, Tag: TagUnblocked, Removed: []gmail.FilterID{}}
	for _, owner := range tgt.owners {
		client, err := s.Auth.Authenticate(ctx, owner)
		if err != nil {
			return Report{}, errors.Wrapf(err, "authenticate %s", owner)
		}
		filters, err := client.ListFilters(ctx)
		if err != nil {
			return Report{}, err
		}
		for _, f := range filters {
			if f.Criteria.Query != tgt.query.Raw {
				continue
			}
			if s.DryRun {
				s.Logger.InfoContext(ctx, "dry-run", slog.String("subject", owner), slog.String("filter", string(f.ID)))
				continue
			}
			if err := client.DeleteFilter(ctx, f.ID); err != nil {
				return Report{}, err
			}
			s.Logger.InfoContext(ctx, "deleted filter", slog.String("subject", owner), slog.String("filter", string(f.ID)))
			rep.Removed = append(rep.Removed, f.ID)
		}
	}
	return rep, nil
}

func backendError(err error) error {
	return errors.Mark(errors.Wrap(err, "Failure"), ErrBackendQuery)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
