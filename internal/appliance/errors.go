package appliance

import "errors"

// Domain errors for the appliance package.
//
// Check with errors.Is():
//
//	if errors.Is(err, appliance.ErrUnsupportedKind) {
//	    // skip this appliance
//	}
var (
	// ErrIncommensurable is returned when a commanded unit cannot be
	// converted to the physical quantity of the target channel.
	ErrIncommensurable = errors.New("appliance: incommensurable unit")

	// ErrUnsupportedKind is returned when an appliance type has no profile.
	ErrUnsupportedKind = errors.New("appliance: unsupported kind")

	// ErrAlreadyRegistered is returned when registering a haId twice.
	ErrAlreadyRegistered = errors.New("appliance: already registered")

	// ErrNotRegistered is returned when a haId has no live session.
	ErrNotRegistered = errors.New("appliance: not registered")
)
