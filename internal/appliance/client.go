package appliance

import "context"

// Status is a single key/value/unit datum reported by the appliance API.
type Status struct {
	Key   string
	Value string
	Unit  string
}

// Client is the narrow contract a session needs from the appliance cloud
// API. Implementations must carry their own transport timeout policy; every
// method may fail with a communication error, which the session logs and
// absorbs without mutating the mirror.
//
// Program-returning methods report presence explicitly: the bool result is
// false when no program is selected or active, which is a legitimate state
// and not an error.
type Client interface {
	// GetStatus reads a status value (operation state, door state,
	// remote control flags, cavity temperature).
	GetStatus(ctx context.Context, haID, key string) (Status, error)

	// GetSetting reads a setting value (power state).
	GetSetting(ctx context.Context, haID, key string) (Status, error)

	// GetSelectedProgram returns the configured-but-not-running program.
	GetSelectedProgram(ctx context.Context, haID string) (Program, bool, error)

	// GetActiveProgram returns the currently executing program.
	GetActiveProgram(ctx context.Context, haID string) (Program, bool, error)

	// StartProgram starts the given program on the appliance.
	StartProgram(ctx context.Context, haID, programKey string) error

	// StopProgram aborts the active program.
	StopProgram(ctx context.Context, haID string) error

	// SetSelectedProgram configures a program without starting it.
	SetSelectedProgram(ctx context.Context, haID, programKey string) error

	// SetPowerState switches the appliance between power states.
	// target is a wire enum value such as PowerOn or PowerStandby.
	SetPowerState(ctx context.Context, haID, target string) error

	// SetProgramOptions writes one program option. applyLive selects the
	// active program slot instead of the selected one, so a running
	// program picks up the change immediately.
	SetProgramOptions(ctx context.Context, haID, optionKey, value, unit string, commit, applyLive bool) error
}

// Sink receives every computed channel value. Publishing is side-effect
// only; implementations should not block the caller for long.
type Sink interface {
	UpdateState(haID string, ch Channel, v Value)
}

// Logger is the minimal structured logging contract used by this package.
// Satisfied by *logging.Logger and *slog.Logger. A nil logger is valid and
// silences all output.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
