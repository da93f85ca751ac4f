package responder

import "github.com/cockroachdb/errors"

// Failure classes. Every error returned by Service.Run is marked with at
// most one of these; provider and authentication errors pass through with
// their own marks.
var (
	ErrInvalidInput  = errors.New("invalid responder input")
	ErrConnectivity  = errors.New("thehive unreachable")
	ErrBackendQuery  = errors.New("thehive query failed")
	ErrUnknownAction = errors.New("unknown responder action")
)

func invalidInput(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidInput)
}
