package appliance

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

var errUnavailable = errors.New("status unavailable")

// apiCall records one outbound client invocation for assertions.
type apiCall struct {
	Method string
	Args   []string
}

// fakeClient is a scriptable Client. Command methods record their calls;
// read methods serve canned data.
type fakeClient struct {
	statuses map[string]Status
	settings map[string]Status

	selected    Program
	selectedOK  bool
	selectedErr error

	active    Program
	activeOK  bool
	activeErr error

	callErr error
	calls   []apiCall
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		statuses: make(map[string]Status),
		settings: make(map[string]Status),
	}
}

func (f *fakeClient) record(method string, args ...string) {
	f.calls = append(f.calls, apiCall{Method: method, Args: args})
}

func (f *fakeClient) GetStatus(_ context.Context, _, key string) (Status, error) {
	st, ok := f.statuses[key]
	if !ok {
		return Status{}, errUnavailable
	}
	return st, nil
}

func (f *fakeClient) GetSetting(_ context.Context, _, key string) (Status, error) {
	st, ok := f.settings[key]
	if !ok {
		return Status{}, errUnavailable
	}
	return st, nil
}

func (f *fakeClient) GetSelectedProgram(context.Context, string) (Program, bool, error) {
	f.record("GetSelectedProgram")
	return f.selected, f.selectedOK, f.selectedErr
}

func (f *fakeClient) GetActiveProgram(context.Context, string) (Program, bool, error) {
	f.record("GetActiveProgram")
	return f.active, f.activeOK, f.activeErr
}

func (f *fakeClient) StartProgram(_ context.Context, _, programKey string) error {
	f.record("StartProgram", programKey)
	return f.callErr
}

func (f *fakeClient) StopProgram(context.Context, string) error {
	f.record("StopProgram")
	return f.callErr
}

func (f *fakeClient) SetSelectedProgram(_ context.Context, _, programKey string) error {
	f.record("SetSelectedProgram", programKey)
	return f.callErr
}

func (f *fakeClient) SetPowerState(_ context.Context, _, target string) error {
	f.record("SetPowerState", target)
	return f.callErr
}

func (f *fakeClient) SetProgramOptions(_ context.Context, _, optionKey, value, unit string, commit, applyLive bool) error {
	f.record("SetProgramOptions", optionKey, value, unit,
		fmt.Sprintf("%t", commit), fmt.Sprintf("%t", applyLive))
	return f.callErr
}

// commandCalls returns only the outbound command invocations, ignoring reads.
func (f *fakeClient) commandCalls() []apiCall {
	var out []apiCall
	for _, c := range f.calls {
		switch c.Method {
		case "GetSelectedProgram", "GetActiveProgram":
			continue
		default:
			out = append(out, c)
		}
	}
	return out
}

// recordingSink captures every published channel value.
type recordingSink struct {
	updates []sinkUpdate
	last    map[Channel]Value
}

type sinkUpdate struct {
	HaID    string
	Channel Channel
	Value   Value
}

func newRecordingSink() *recordingSink {
	return &recordingSink{last: make(map[Channel]Value)}
}

func (r *recordingSink) UpdateState(haID string, ch Channel, v Value) {
	r.updates = append(r.updates, sinkUpdate{HaID: haID, Channel: ch, Value: v})
	r.last[ch] = v
}

// countingLogger counts log lines per level; used to assert the one-logged-
// error policy for dropped commands.
type countingLogger struct {
	debugs, infos, warns, errors int
}

func (l *countingLogger) Debug(string, ...any) { l.debugs++ }
func (l *countingLogger) Info(string, ...any)  { l.infos++ }
func (l *countingLogger) Warn(string, ...any)  { l.warns++ }
func (l *countingLogger) Error(string, ...any) { l.errors++ }

// newTestSession builds a reachable oven session over the given fakes.
func newTestSession(t *testing.T, client Client, sink Sink, logger Logger) *Session {
	t.Helper()
	s, err := NewSession(SessionOptions{
		HaID:      "BOSCH-HCS01OVN1-0000000000AA",
		Kind:      KindOven,
		Client:    client,
		Sink:      sink,
		Logger:    logger,
		Reachable: true,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}
