package appliance

import (
	"context"
	"strconv"
	"strings"
)

// CommandKind tags the variants of a user command.
type CommandKind int

// Command variants.
const (
	CommandString CommandKind = iota
	CommandOnOff
	CommandQuantity
)

// Command is a user-issued instruction for one channel: a string (program
// keys, basic actions), an on/off toggle (power), or a quantity with a unit
// tag (setpoint, duration).
type Command struct {
	Kind  CommandKind
	Text  string
	On    bool
	Value float64
	Unit  string
}

// StringCommand builds a string command.
func StringCommand(text string) Command {
	return Command{Kind: CommandString, Text: text}
}

// OnOffCommand builds an on/off command.
func OnOffCommand(on bool) Command {
	return Command{Kind: CommandOnOff, On: on}
}

// QuantityCommand builds a quantity command with its unit tag.
func QuantityCommand(value float64, unit string) Command {
	return Command{Kind: CommandQuantity, Value: value, Unit: unit}
}

// HandleCommand translates a user command into an outbound API call.
//
// Failure policy: conversion errors and API communication errors are logged
// and the command is dropped; the mirror is never mutated on failure. There
// is no local echo before the appliance confirms, so nothing needs rolling
// back. Commands for unreachable appliances are dropped silently.
func (s *Session) HandleCommand(ctx context.Context, ch Channel, cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reachable {
		s.logDebug("appliance not reachable, dropping command", "channel", ch)
		return
	}
	if !s.present[ch] {
		s.logDebug("no such channel for this appliance, dropping command", "channel", ch)
		return
	}

	s.logDebug("handling command", "channel", ch, "command", cmd.Kind)

	switch {
	case ch == ChannelBasicAction && cmd.Kind == CommandString:
		s.handleBasicAction(ctx, cmd.Text)

	case ch == ChannelSelectedProgram && cmd.Kind == CommandString:
		if err := s.client.SetSelectedProgram(ctx, s.haID, cmd.Text); err != nil {
			s.logWarn("could not set selected program", "program", cmd.Text, "error", err)
		}

	case ch == ChannelPowerState && cmd.Kind == CommandOnOff:
		target := PowerStandby
		if cmd.On {
			target = PowerOn
		}
		if err := s.client.SetPowerState(ctx, s.haID, string(target)); err != nil {
			s.logWarn("could not set power state", "target", target, "error", err)
		}

	case ch == ChannelSetpointTemperature && cmd.Kind == CommandQuantity:
		value, unit, err := ConvertTemperature(cmd.Value, cmd.Unit)
		if err != nil {
			s.logError("could not convert setpoint temperature", "unit", cmd.Unit, "error", err)
			return
		}
		s.setProgramOption(ctx, KeySetpointTemperature, strconv.Itoa(value), string(unit))

	case ch == ChannelDuration && cmd.Kind == CommandQuantity:
		seconds, err := ConvertDuration(cmd.Value, cmd.Unit)
		if err != nil {
			s.logError("could not convert duration", "unit", cmd.Unit, "error", err)
			return
		}
		s.setProgramOption(ctx, KeyDuration, strconv.Itoa(seconds), string(UnitSeconds))

	default:
		s.logDebug("unsupported command for channel", "channel", ch)
	}
}

// handleBasicAction starts or stops a program. "start" launches the
// currently selected program; any other value stops the active one. The
// action channel is a momentary control and is cleared immediately.
func (s *Session) handleBasicAction(ctx context.Context, action string) {
	s.publish(ChannelBasicAction, StringValue(""))

	if strings.EqualFold(action, "start") {
		program, ok := s.mirror.SelectedProgram()
		if !ok {
			s.logWarn("no selected program to start")
			return
		}
		if err := s.client.StartProgram(ctx, s.haID, program.Key); err != nil {
			s.logWarn("could not start program", "program", program.Key, "error", err)
		}
		return
	}

	if err := s.client.StopProgram(ctx, s.haID); err != nil {
		s.logWarn("could not stop program", "error", err)
	}
}

// setProgramOption writes one program option, gated on the operation state.
// Option changes are only legal while the appliance is idle (Inactive,
// Ready) or running (DelayedStart, Run, Pause); an unknown or unexpected
// state drops the command fail-closed with no outward call. applyLive is set
// for the running states so the active program picks the change up.
func (s *Session) setProgramOption(ctx context.Context, optionKey, value, unit string) {
	state, known := s.mirror.OperationState()
	if !known || !state.AcceptsProgramOptions() {
		s.logDebug("operation state does not accept option changes, dropping command",
			"option", optionKey, "state", string(state), "known", known)
		return
	}

	err := s.client.SetProgramOptions(ctx, s.haID, optionKey, value, unit, true, state.Active())
	if err != nil {
		s.logWarn("could not set program option", "option", optionKey, "value", value, "error", err)
	}
}
