package responder

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Action is a responder behaviour selected by the configured service name.
type Action int

const (
	ActionUnknown Action = iota
	ActionBlockSender
	ActionBlockDomain
	ActionUnblockSender
	ActionUnblockDomain
)

var actionNames = map[string]Action{
	"blocksender":   ActionBlockSender,
	"blockdomain":   ActionBlockDomain,
	"unblocksender": ActionUnblockSender,
	"unblockdomain": ActionUnblockDomain,
}

// ParseAction resolves a service name case-insensitively.
func ParseAction(name string) (Action, error) {
	if a, ok := actionNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return a, nil
	}
	return ActionUnknown, errors.Mark(errors.Newf("service named %s not found.", name), ErrUnknownAction)
}

func (a Action) String() string {
	for name, v := range actionNames {
		if v == a {
			return name
		}
	}
	return "unknown"
}
