package appliance

// profile carries the channel list and handler registrations for one
// appliance kind. Profiles are built once per session construction and the
// resulting tables are never mutated afterwards, so they are safe for
// concurrent reads without locking.
type profile struct {
	channels []Channel
	events   map[string]EventHandler
	updates  map[Channel]UpdateHandler
}

// profileFor returns the registration table for a kind.
func profileFor(kind Kind) (profile, bool) {
	switch kind {
	case KindOven:
		return ovenProfile(), true
	case KindCoffeeMaker:
		return coffeeMakerProfile(), true
	case KindDishwasher, KindWasher, KindDryer:
		return programApplianceProfile(), true
	case KindFridgeFreezer:
		return fridgeFreezerProfile(), true
	case KindHood:
		return hoodProfile(), true
	default:
		return profile{}, false
	}
}

// baseProfile returns the registrations every program-running appliance
// shares: operation/power state with their cascades, remote control flags,
// program slots, program runtime channels and the start/stop action.
func baseProfile(withDoor bool) profile {
	p := profile{
		channels: []Channel{
			ChannelOperationState,
			ChannelPowerState,
			ChannelRemoteControlActive,
			ChannelRemoteStartAllowed,
			ChannelSelectedProgram,
			ChannelActiveProgram,
			ChannelRemainingTime,
			ChannelProgress,
			ChannelElapsedTime,
			ChannelBasicAction,
		},
		events: map[string]EventHandler{
			KeyOperationState:      operationStateEvent,
			KeyPowerState:          powerStateEvent,
			KeyRemoteControlActive: booleanEvent(ChannelRemoteControlActive),
			KeyRemoteStartAllowed:  booleanEvent(ChannelRemoteStartAllowed),
			KeySelectedProgram:     selectedProgramEvent,
			KeyActiveProgram:       activeProgramEvent,
			KeyRemainingTime:       remainingTimeEvent,
			KeyProgramProgress:     programProgressEvent,
			KeyElapsedTime:         elapsedTimeEvent,
			KeyConnected:           connectedEvent,
			KeyDisconnected:        disconnectedEvent,
		},
		updates: map[Channel]UpdateHandler{
			ChannelOperationState:      operationStateUpdate,
			ChannelPowerState:          powerStateUpdate,
			ChannelRemoteControlActive: statusUpdate(KeyRemoteControlActive, ChannelRemoteControlActive, renderBoolStatus),
			ChannelRemoteStartAllowed:  statusUpdate(KeyRemoteStartAllowed, ChannelRemoteStartAllowed, renderBoolStatus),
			ChannelSelectedProgram:     selectedProgramUpdate,
			ChannelActiveProgram:       activeProgramUpdate,
		},
	}

	if withDoor {
		p.channels = append(p.channels, ChannelDoorState)
		p.events[KeyDoorState] = doorStateEvent
		p.updates[ChannelDoorState] = statusUpdate(KeyDoorState, ChannelDoorState, renderShortNameStatus)
	}

	return p
}

// ovenProfile extends the base with setpoint temperature, duration and
// cavity temperature handling.
func ovenProfile() profile {
	p := baseProfile(true)

	p.channels = append(p.channels,
		ChannelSetpointTemperature,
		ChannelDuration,
		ChannelCavityTemperature,
	)

	p.events[KeySetpointTemperature] = temperatureEvent(ChannelSetpointTemperature)
	p.events[KeyCavityTemperature] = temperatureEvent(ChannelCavityTemperature)
	p.events[KeyDuration] = durationEvent

	p.updates[ChannelSetpointTemperature] = selectedOptionUpdate(
		KeySetpointTemperature, ChannelSetpointTemperature, renderTemperatureOption)
	p.updates[ChannelDuration] = selectedOptionUpdate(
		KeyDuration, ChannelDuration, renderSecondsOption)

	return p
}

// coffeeMakerProfile is the base registration set without a door channel.
func coffeeMakerProfile() profile {
	return baseProfile(false)
}

// programApplianceProfile covers dishwashers, washers and dryers: the base
// set plus a door channel.
func programApplianceProfile() profile {
	return baseProfile(true)
}

// fridgeFreezerProfile covers cooling appliances, which run no programs:
// door and power state only.
func fridgeFreezerProfile() profile {
	return profile{
		channels: []Channel{ChannelPowerState, ChannelDoorState},
		events: map[string]EventHandler{
			KeyPowerState:   powerStateEvent,
			KeyDoorState:    doorStateEvent,
			KeyConnected:    connectedEvent,
			KeyDisconnected: disconnectedEvent,
		},
		updates: map[Channel]UpdateHandler{
			ChannelPowerState: powerStateUpdate,
			ChannelDoorState:  statusUpdate(KeyDoorState, ChannelDoorState, renderShortNameStatus),
		},
	}
}

// hoodProfile covers extractor hoods: the base set without a door channel.
func hoodProfile() profile {
	return baseProfile(false)
}
