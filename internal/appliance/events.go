package appliance

import "context"

// Event reconcilers. Each handler applies one push event to the mirror and
// emits the affected channel values. Cascading side-effects (progress
// sentinels, program state resets, full refreshes) follow the mirror's
// reset and cascade rules; no other code mutates those fields.

// booleanEvent returns a 1:1 handler publishing the event as a boolean.
func booleanEvent(ch Channel) EventHandler {
	return func(_ context.Context, s *Session, ev Event) {
		s.publishIfPresent(ch, BoolValue(ev.Bool()))
	}
}

// operationStateEvent applies an operation state change and its cascades:
// Finished forces progress to 100 %, Run zeroes progress and re-derives the
// active program, Ready clears the program state channels.
func operationStateEvent(ctx context.Context, s *Session, ev Event) {
	state, ok := ParseOperationState(ev.Value)
	if ok {
		s.mirror.SetOperationState(state)
	} else {
		s.mirror.ClearOperationState()
		s.logWarn("unrecognised operation state", "value", ev.Value)
	}
	s.publish(ChannelOperationState, StringValue(ShortName(ev.Value)))

	switch state {
	case OperationStateFinished:
		s.publishIfPresent(ChannelProgress, QuantityValue(100, UnitPercent))
	case OperationStateRun:
		s.publishIfPresent(ChannelProgress, QuantityValue(0, UnitPercent))
		// Force recomputation instead of reusing a stale program value.
		s.refreshChannelLocked(ctx, ChannelActiveProgram)
	case OperationStateReady:
		s.resetProgramStateChannels()
	}
}

// powerStateEvent applies a power state change. Leaving On invalidates every
// program-related channel; entering On triggers a full refresh because the
// appliance may have synchronised state while the mirror was stale.
func powerStateEvent(ctx context.Context, s *Session, ev Event) {
	state, ok := ParsePowerState(ev.Value)
	if ok {
		s.mirror.SetPowerState(state)
	} else {
		s.mirror.ClearPowerState()
		s.logWarn("unrecognised power state", "value", ev.Value)
	}
	s.publish(ChannelPowerState, BoolValue(state == PowerOn))

	if ok && state == PowerOn {
		s.refreshAllLocked(ctx)
		return
	}

	s.resetProgramStateChannels()
	s.mirror.ClearSelectedProgram()
	s.mirror.ClearActiveProgram()
	s.publishIfPresent(ChannelSelectedProgram, Undefined())
	s.publishIfPresent(ChannelActiveProgram, Undefined())
	s.publishIfPresent(ChannelSetpointTemperature, Undefined())
	s.publishIfPresent(ChannelDuration, Undefined())
}

// doorStateEvent publishes the door state as its short wire name
// (Open, Closed, Locked).
func doorStateEvent(_ context.Context, s *Session, ev Event) {
	s.mirror.SetDoorState(ev.Value)
	s.publishIfPresent(ChannelDoorState, StringValue(ShortName(ev.Value)))
}

// selectedProgramEvent records the configured program key. An empty value
// means no program is selected.
func selectedProgramEvent(_ context.Context, s *Session, ev Event) {
	if ev.Value == "" {
		s.mirror.ClearSelectedProgram()
		s.publishIfPresent(ChannelSelectedProgram, Undefined())
		return
	}
	s.mirror.SetSelectedProgram(Program{Key: ev.Value})
	s.publishIfPresent(ChannelSelectedProgram, StringValue(ev.Value))
}

// activeProgramEvent records the executing program key. An absent program
// additionally clears the program state channels.
func activeProgramEvent(_ context.Context, s *Session, ev Event) {
	if ev.Value == "" {
		s.mirror.ClearActiveProgram()
		s.publishIfPresent(ChannelActiveProgram, Undefined())
		s.resetProgramStateChannels()
		return
	}
	s.mirror.SetActiveProgram(Program{Key: ev.Value})
	s.publishIfPresent(ChannelActiveProgram, StringValue(ev.Value))
}

// remainingTimeEvent publishes the remaining program time. Zero is the
// sentinel for "not applicable", not a literal zero seconds.
func remainingTimeEvent(_ context.Context, s *Session, ev Event) {
	if n := ev.Int(); n == 0 {
		s.publishIfPresent(ChannelRemainingTime, Undefined())
	} else {
		s.publishIfPresent(ChannelRemainingTime, QuantityValue(n, UnitSeconds))
	}
}

// programProgressEvent publishes program progress. 100 is the sentinel for
// "not applicable" (a just-reset program has not made progress yet).
func programProgressEvent(_ context.Context, s *Session, ev Event) {
	if n := ev.Int(); n == 100 {
		s.publishIfPresent(ChannelProgress, Undefined())
	} else {
		s.publishIfPresent(ChannelProgress, QuantityValue(n, UnitPercent))
	}
}

// elapsedTimeEvent publishes the elapsed program time; always defined.
func elapsedTimeEvent(_ context.Context, s *Session, ev Event) {
	s.publishIfPresent(ChannelElapsedTime, QuantityValue(ev.Int(), UnitSeconds))
}

// temperatureEvent returns a 1:1 handler publishing a temperature quantity
// with the mapped unit.
func temperatureEvent(ch Channel) EventHandler {
	return func(_ context.Context, s *Session, ev Event) {
		unit, known := MapTemperature(ev.Unit)
		if !known {
			s.logWarn("unrecognised temperature unit tag", "unit", ev.Unit, "key", ev.Key)
		}
		s.publishIfPresent(ch, QuantityValue(ev.Int(), unit))
	}
}

// durationEvent publishes the configured program duration in seconds.
func durationEvent(_ context.Context, s *Session, ev Event) {
	s.publishIfPresent(ChannelDuration, QuantityValue(ev.Int(), UnitSeconds))
}

// connectedEvent marks the appliance reachable and refreshes every channel.
func connectedEvent(ctx context.Context, s *Session, _ Event) {
	s.setReachable(true)
	s.logInfo("appliance connected")
	s.refreshAllLocked(ctx)
}

// disconnectedEvent marks the appliance unreachable. Channel values are left
// as they are; the appliance will resynchronise on reconnect.
func disconnectedEvent(_ context.Context, s *Session, _ Event) {
	s.setReachable(false)
	s.logInfo("appliance disconnected")
}
