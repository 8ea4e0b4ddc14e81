package appliance

import "context"

// Polling reconcilers. Each update handler pulls one channel's value from
// the appliance API and applies the same value mapping as the corresponding
// event handler. Pull failures are logged and leave the channel at its
// previous value.

// statusUpdate returns a handler that reads one status key and publishes it
// through render.
func statusUpdate(key string, ch Channel, render func(Status) Value) UpdateHandler {
	return func(ctx context.Context, s *Session) {
		status, err := s.client.GetStatus(ctx, s.haID, key)
		if err != nil {
			s.logWarn("status poll failed", "key", key, "error", err)
			return
		}
		s.publishIfPresent(ch, render(status))
	}
}

// operationStateUpdate polls the operation state and records it in the
// mirror. Cascades are event-side only; a poll is a plain resynchronisation.
func operationStateUpdate(ctx context.Context, s *Session) {
	status, err := s.client.GetStatus(ctx, s.haID, KeyOperationState)
	if err != nil {
		s.logWarn("operation state poll failed", "error", err)
		return
	}
	if state, ok := ParseOperationState(status.Value); ok {
		s.mirror.SetOperationState(state)
	} else {
		s.mirror.ClearOperationState()
	}
	s.publish(ChannelOperationState, StringValue(ShortName(status.Value)))
}

// powerStateUpdate polls the power setting.
func powerStateUpdate(ctx context.Context, s *Session) {
	setting, err := s.client.GetSetting(ctx, s.haID, KeyPowerState)
	if err != nil {
		s.logWarn("power state poll failed", "error", err)
		return
	}
	state, ok := ParsePowerState(setting.Value)
	if ok {
		s.mirror.SetPowerState(state)
	} else {
		s.mirror.ClearPowerState()
	}
	s.publish(ChannelPowerState, BoolValue(state == PowerOn))
}

// selectedProgramUpdate polls the selected program and records the full
// program, options included, in the mirror.
func selectedProgramUpdate(ctx context.Context, s *Session) {
	program, ok, err := s.client.GetSelectedProgram(ctx, s.haID)
	if err != nil {
		s.logWarn("selected program poll failed", "error", err)
		return
	}
	if !ok {
		s.mirror.ClearSelectedProgram()
		s.publishIfPresent(ChannelSelectedProgram, Undefined())
		return
	}
	s.mirror.SetSelectedProgram(program)
	s.publishIfPresent(ChannelSelectedProgram, StringValue(program.Key))
}

// selectedOptionUpdate returns a handler deriving one channel from an option
// of the selected program. An absent program or option publishes Undefined.
func selectedOptionUpdate(optionKey string, ch Channel, render func(Option) Value) UpdateHandler {
	return func(ctx context.Context, s *Session) {
		program, ok, err := s.client.GetSelectedProgram(ctx, s.haID)
		if err != nil {
			s.logWarn("selected program poll failed", "channel", ch, "error", err)
			return
		}
		if !ok {
			s.publishIfPresent(ch, Undefined())
			return
		}
		option, found := program.Option(optionKey)
		if !found {
			s.publishIfPresent(ch, Undefined())
			return
		}
		s.publishIfPresent(ch, render(option))
	}
}

// activeProgramUpdate polls the active program and fans its options out to
// the dependent channels. Option keys outside the known set are ignored.
func activeProgramUpdate(ctx context.Context, s *Session) {
	program, ok, err := s.client.GetActiveProgram(ctx, s.haID)
	if err != nil {
		s.logWarn("active program poll failed", "error", err)
		return
	}
	if !ok {
		s.mirror.ClearActiveProgram()
		s.publishIfPresent(ChannelActiveProgram, Undefined())
		s.resetProgramStateChannels()
		return
	}

	s.mirror.SetActiveProgram(program)
	s.publishIfPresent(ChannelActiveProgram, StringValue(program.Key))

	for _, option := range program.Options {
		switch option.Key {
		case KeyRemainingTime:
			if option.Value == 0 {
				s.publishIfPresent(ChannelRemainingTime, Undefined())
			} else {
				s.publishIfPresent(ChannelRemainingTime, QuantityValue(option.Value, UnitSeconds))
			}
		case KeyProgramProgress:
			if option.Value == 100 {
				s.publishIfPresent(ChannelProgress, Undefined())
			} else {
				s.publishIfPresent(ChannelProgress, QuantityValue(option.Value, UnitPercent))
			}
		case KeyElapsedTime:
			s.publishIfPresent(ChannelElapsedTime, QuantityValue(option.Value, UnitSeconds))
		}
	}
}

// renderBoolStatus maps a "true"/"false" status onto a boolean value.
func renderBoolStatus(st Status) Value {
	return BoolValue(st.Value == "true")
}

// renderShortNameStatus maps an enum status onto its short display name.
func renderShortNameStatus(st Status) Value {
	return StringValue(ShortName(st.Value))
}

// renderTemperatureOption maps a temperature option with its unit tag.
func renderTemperatureOption(o Option) Value {
	unit, _ := MapTemperature(o.Unit)
	return QuantityValue(o.Value, unit)
}

// renderSecondsOption maps a time option; durations are always seconds.
func renderSecondsOption(o Option) Value {
	return QuantityValue(o.Value, UnitSeconds)
}
