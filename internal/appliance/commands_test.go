package appliance

import (
	"context"
	"testing"
)

// driveOperationState puts the session mirror into a known operation state
// via the event path, then discards the fake's bookkeeping so assertions
// only see the command under test.
func driveOperationState(t *testing.T, s *Session, client *fakeClient, state OperationState) {
	t.Helper()
	s.HandleEvent(context.Background(), Event{Key: KeyOperationState, Value: string(state)})
	client.calls = nil
}

func TestHandleCommandSetpointTemperature(t *testing.T) {
	tests := []struct {
		name     string
		state    OperationState
		cmd      Command
		wantArgs []string
	}{
		{
			name:     "fahrenheit converts to celsius while running",
			state:    OperationStateRun,
			cmd:      QuantityCommand(350, "°F"),
			wantArgs: []string{KeySetpointTemperature, "176", "°C", "true", "true"},
		},
		{
			name:     "celsius passes through while ready",
			state:    OperationStateReady,
			cmd:      QuantityCommand(200, "°C"),
			wantArgs: []string{KeySetpointTemperature, "200", "°C", "true", "false"},
		},
		{
			name:     "paused program applies live",
			state:    OperationStatePause,
			cmd:      QuantityCommand(180, "°C"),
			wantArgs: []string{KeySetpointTemperature, "180", "°C", "true", "true"},
		},
		{
			name:     "delayed start applies live",
			state:    OperationStateDelayedStart,
			cmd:      QuantityCommand(220, "°C"),
			wantArgs: []string{KeySetpointTemperature, "220", "°C", "true", "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			s := newTestSession(t, client, newRecordingSink(), nil)
			driveOperationState(t, s, client, tt.state)

			s.HandleCommand(context.Background(), ChannelSetpointTemperature, tt.cmd)

			calls := client.commandCalls()
			if len(calls) != 1 || calls[0].Method != "SetProgramOptions" {
				t.Fatalf("calls = %v, want a single SetProgramOptions", calls)
			}
			got := calls[0].Args
			if len(got) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", got, tt.wantArgs)
			}
			for i := range got {
				if got[i] != tt.wantArgs[i] {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestHandleCommandSetpointDroppedFailClosed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s *Session, client *fakeClient)
	}{
		{
			name:  "operation state never reported",
			setup: func(t *testing.T, s *Session, client *fakeClient) {},
		},
		{
			name: "finished program accepts no options",
			setup: func(t *testing.T, s *Session, client *fakeClient) {
				driveOperationState(t, s, client, OperationStateFinished)
			},
		},
		{
			name: "aborting program accepts no options",
			setup: func(t *testing.T, s *Session, client *fakeClient) {
				driveOperationState(t, s, client, OperationStateAborting)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			s := newTestSession(t, client, newRecordingSink(), nil)
			tt.setup(t, s, client)

			s.HandleCommand(context.Background(), ChannelSetpointTemperature, QuantityCommand(200, "°C"))

			if calls := client.commandCalls(); len(calls) != 0 {
				t.Errorf("dropped command still issued calls: %v", calls)
			}
		})
	}
}

func TestHandleCommandIncommensurableUnit(t *testing.T) {
	client := newFakeClient()
	logger := &countingLogger{}
	s := newTestSession(t, client, newRecordingSink(), logger)
	driveOperationState(t, s, client, OperationStateRun)
	logger.errors = 0

	s.HandleCommand(context.Background(), ChannelSetpointTemperature, QuantityCommand(5, "bar"))

	if calls := client.commandCalls(); len(calls) != 0 {
		t.Errorf("incommensurable command still issued calls: %v", calls)
	}
	if logger.errors != 1 {
		t.Errorf("error log count = %d, want 1", logger.errors)
	}
}

func TestHandleCommandDuration(t *testing.T) {
	client := newFakeClient()
	s := newTestSession(t, client, newRecordingSink(), nil)
	driveOperationState(t, s, client, OperationStateReady)

	s.HandleCommand(context.Background(), ChannelDuration, QuantityCommand(30, "min"))

	calls := client.commandCalls()
	if len(calls) != 1 || calls[0].Method != "SetProgramOptions" {
		t.Fatalf("calls = %v, want a single SetProgramOptions", calls)
	}
	want := []string{KeyDuration, "1800", "seconds", "true", "false"}
	for i, arg := range calls[0].Args {
		if arg != want[i] {
			t.Errorf("arg[%d] = %q, want %q", i, arg, want[i])
		}
	}
}

func TestHandleCommandBasicActionStart(t *testing.T) {
	client := newFakeClient()
	sink := newRecordingSink()
	s := newTestSession(t, client, sink, nil)
	ctx := context.Background()

	s.HandleEvent(ctx, Event{Key: KeySelectedProgram, Value: "Cooking.Oven.Program.HeatingMode.HotAir"})
	s.HandleCommand(ctx, ChannelBasicAction, StringCommand("start"))

	calls := client.commandCalls()
	if len(calls) != 1 || calls[0].Method != "StartProgram" {
		t.Fatalf("calls = %v, want a single StartProgram", calls)
	}
	if calls[0].Args[0] != "Cooking.Oven.Program.HeatingMode.HotAir" {
		t.Errorf("started program = %q, want the selected program", calls[0].Args[0])
	}
	// Momentary control: the action channel is cleared immediately.
	if got := sink.last[ChannelBasicAction]; got != StringValue("") {
		t.Errorf("basic action channel = %v, want cleared", got)
	}
}

func TestHandleCommandBasicActionStartWithoutSelection(t *testing.T) {
	client := newFakeClient()
	logger := &countingLogger{}
	s := newTestSession(t, client, newRecordingSink(), logger)

	s.HandleCommand(context.Background(), ChannelBasicAction, StringCommand("start"))

	if calls := client.commandCalls(); len(calls) != 0 {
		t.Errorf("start with no selected program issued calls: %v", calls)
	}
	if logger.warns != 1 {
		t.Errorf("warn count = %d, want 1", logger.warns)
	}
}

func TestHandleCommandBasicActionStop(t *testing.T) {
	client := newFakeClient()
	s := newTestSession(t, client, newRecordingSink(), nil)

	s.HandleCommand(context.Background(), ChannelBasicAction, StringCommand("stop"))

	calls := client.commandCalls()
	if len(calls) != 1 || calls[0].Method != "StopProgram" {
		t.Fatalf("calls = %v, want a single StopProgram", calls)
	}
}

func TestHandleCommandSelectedProgram(t *testing.T) {
	client := newFakeClient()
	s := newTestSession(t, client, newRecordingSink(), nil)

	s.HandleCommand(context.Background(), ChannelSelectedProgram,
		StringCommand("Cooking.Oven.Program.HeatingMode.Pizza"))

	calls := client.commandCalls()
	if len(calls) != 1 || calls[0].Method != "SetSelectedProgram" {
		t.Fatalf("calls = %v, want a single SetSelectedProgram", calls)
	}
	if calls[0].Args[0] != "Cooking.Oven.Program.HeatingMode.Pizza" {
		t.Errorf("program = %q, want the commanded key", calls[0].Args[0])
	}
}

func TestHandleCommandPowerState(t *testing.T) {
	tests := []struct {
		name string
		on   bool
		want string
	}{
		{"switch on", true, string(PowerOn)},
		{"switch off targets standby", false, string(PowerStandby)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			s := newTestSession(t, client, newRecordingSink(), nil)

			s.HandleCommand(context.Background(), ChannelPowerState, OnOffCommand(tt.on))

			calls := client.commandCalls()
			if len(calls) != 1 || calls[0].Method != "SetPowerState" {
				t.Fatalf("calls = %v, want a single SetPowerState", calls)
			}
			if calls[0].Args[0] != tt.want {
				t.Errorf("target = %q, want %q", calls[0].Args[0], tt.want)
			}
		})
	}
}

func TestHandleCommandUnreachableApplianceDropped(t *testing.T) {
	client := newFakeClient()
	s := newTestSession(t, client, newRecordingSink(), nil)
	s.HandleEvent(context.Background(), Event{Key: KeyDisconnected})

	s.HandleCommand(context.Background(), ChannelPowerState, OnOffCommand(true))

	if calls := client.commandCalls(); len(calls) != 0 {
		t.Errorf("command for unreachable appliance issued calls: %v", calls)
	}
}

func TestHandleCommandAbsentChannelDropped(t *testing.T) {
	client := newFakeClient()
	sink := newRecordingSink()
	s, err := NewSession(SessionOptions{
		HaID:      "SIEMENS-SN636X00KE-0000000000BB",
		Kind:      KindDishwasher,
		Client:    client,
		Sink:      sink,
		Reachable: true,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	// Dishwashers carry no setpoint temperature channel.
	s.HandleCommand(context.Background(), ChannelSetpointTemperature, QuantityCommand(60, "°C"))

	if calls := client.commandCalls(); len(calls) != 0 {
		t.Errorf("command for absent channel issued calls: %v", calls)
	}
}

func TestHandleCommandAPIErrorAbsorbed(t *testing.T) {
	client := newFakeClient()
	client.callErr = errUnavailable
	logger := &countingLogger{}
	sink := newRecordingSink()
	s := newTestSession(t, client, sink, logger)

	before := sink.last[ChannelSelectedProgram]
	s.HandleCommand(context.Background(), ChannelSelectedProgram, StringCommand("Cooking.Oven.Program.HeatingMode.HotAir"))

	if logger.warns != 1 {
		t.Errorf("warn count = %d, want 1", logger.warns)
	}
	if got := sink.last[ChannelSelectedProgram]; got != before {
		t.Errorf("selected program = %v after failed command, want unchanged", got)
	}
}
