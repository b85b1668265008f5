package upgradecontrol

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUpgradeTimeout = errors.New("A timeout occured while waiting for Rancher to complete the upgrade")
	ErrNoContainers   = errors.New("the service has no containers to set the new image on")
	ErrNoSelfLink     = errors.New("the service record has no self link")
)

type ResourceKind string

const (
	KindCluster     ResourceKind = "cluster"
	KindEnvironment ResourceKind = "environment"
	KindStack       ResourceKind = "stack"
	KindService     ResourceKind = "service"
)

// NotFoundError means no resource of Kind matched Input. Scope is the display
// name of the parent it was searched in.
type NotFoundError struct {
	Kind  ResourceKind
	Input string
	Scope string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case KindStack:
		return fmt.Sprintf("Unable to find a stack called '%s'. Does it exist in the '%s' environment?", e.Input, e.Scope)
	case KindService:
		return fmt.Sprintf("Unable to find a service called '%s', does it exist in Rancher?", e.Input)
	default:
		return fmt.Sprintf("The '%s' %s doesn't exist in Rancher, or your API credentials don't have access to it", e.Input, e.Kind)
	}
}

// StageError wraps a failed API call with the message for the step that made it.
type StageError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

type NotReadyError struct {
	State string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("Unable to start upgrade: current service state '%s', but it needs to be 'active'", e.State)
}
