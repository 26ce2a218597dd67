package dispatcher

import (
	"errors"
	"fmt"

	"github.com/opsconductor/core/pkg/models"
)

// dispatchError is a sentinel-style error kind (spec §9: "exceptions for
// control flow → result types"), matching models.planError's shape so
// callers compare with errors.Is instead of type-switching.
type dispatchError string

func (e dispatchError) Error() string { return string(e) }

// ErrUpstreamUnreachable is returned once a step exhausts its retry policy
// against an unreachable collaborator (spec §4.9 step 7).
const ErrUpstreamUnreachable = dispatchError("upstream_unreachable")

// MissingCredentialsError is the structured error spec §4.9 step 4
// describes: "a structured missing_credentials error containing a
// parameter descriptor for the user to fulfill".
type MissingCredentialsError struct {
	ToolID     string
	Descriptor models.ParameterDescriptor
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing_credentials: %s requires %s", e.ToolID, e.Descriptor.Name)
}

// IsMissingCredentials reports whether err is (or wraps) a
// *MissingCredentialsError.
func IsMissingCredentials(err error) bool {
	var target *MissingCredentialsError
	return errors.As(err, &target)
}
