package appliance

// Mirror is the per-appliance in-memory image of operable state: the current
// operation, power and door state, the selected and active program, and the
// last emitted value per channel. It is a cache, not a system of record; the
// appliance itself stays authoritative.
//
// Mirror is not safe for concurrent use. The owning session serialises all
// access under its per-appliance lock.
type Mirror struct {
	operationState OperationState
	operationKnown bool

	powerState PowerState
	powerKnown bool

	doorState string

	selected   Program
	selectedOK bool

	active   Program
	activeOK bool

	values map[Channel]Value
}

// NewMirror returns an empty mirror; every channel starts Undefined and all
// state fields start unknown.
func NewMirror() *Mirror {
	return &Mirror{values: make(map[Channel]Value)}
}

// SetValue records the last emitted value for a channel.
func (m *Mirror) SetValue(ch Channel, v Value) {
	m.values[ch] = v
}

// Value returns the last emitted value for a channel. Channels never
// emitted report Undefined.
func (m *Mirror) Value(ch Channel) Value {
	return m.values[ch]
}

// OperationState returns the current operation state; ok is false when the
// state has never been reported or the last report was unrecognised.
func (m *Mirror) OperationState() (OperationState, bool) {
	return m.operationState, m.operationKnown
}

// SetOperationState records a recognised operation state.
func (m *Mirror) SetOperationState(s OperationState) {
	m.operationState = s
	m.operationKnown = true
}

// ClearOperationState marks the operation state unknown.
func (m *Mirror) ClearOperationState() {
	m.operationState = ""
	m.operationKnown = false
}

// PowerState returns the current power state; ok is false when unknown.
func (m *Mirror) PowerState() (PowerState, bool) {
	return m.powerState, m.powerKnown
}

// SetPowerState records a recognised power state.
func (m *Mirror) SetPowerState(s PowerState) {
	m.powerState = s
	m.powerKnown = true
}

// ClearPowerState marks the power state unknown.
func (m *Mirror) ClearPowerState() {
	m.powerState = ""
	m.powerKnown = false
}

// DoorState returns the raw door state wire value ("" when unknown).
func (m *Mirror) DoorState() string { return m.doorState }

// SetDoorState records the raw door state wire value.
func (m *Mirror) SetDoorState(s string) { m.doorState = s }

// SelectedProgram returns the configured program; ok is false when absent.
func (m *Mirror) SelectedProgram() (Program, bool) {
	return m.selected, m.selectedOK
}

// SetSelectedProgram records the configured program.
func (m *Mirror) SetSelectedProgram(p Program) {
	m.selected = p
	m.selectedOK = true
}

// ClearSelectedProgram marks the selected program absent.
func (m *Mirror) ClearSelectedProgram() {
	m.selected = Program{}
	m.selectedOK = false
}

// ActiveProgram returns the executing program; ok is false when absent.
func (m *Mirror) ActiveProgram() (Program, bool) {
	return m.active, m.activeOK
}

// SetActiveProgram records the executing program.
func (m *Mirror) SetActiveProgram(p Program) {
	m.active = p
	m.activeOK = true
}

// ClearActiveProgram marks the active program absent.
func (m *Mirror) ClearActiveProgram() {
	m.active = Program{}
	m.activeOK = false
}
