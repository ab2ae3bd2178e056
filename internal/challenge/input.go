package challenge

// Digit-entry micro-behavior, mirroring the slot widget: one character per
// slot, focus advances on input, backspace walks backwards. Input is blocked
// while a submission is in flight.

// Press types one character into the focused slot. Non-numeric input is
// rejected at the boundary. After a digit lands, focus moves to the next
// empty slot. Returns false when the keystroke was rejected.
func (m *Machine) Press(ch byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || m.busy || m.step != StepEnter {
		return false
	}
	if ch < '0' || ch > '9' {
		return false
	}
	m.digits[m.focus] = ch
	m.advanceFocusLocked()
	return true
}

// Backspace clears the focused slot; on an already-empty slot it moves focus
// to the previous slot and clears that instead.
func (m *Machine) Backspace() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || m.busy || m.step != StepEnter {
		return
	}
	if m.digits[m.focus] == 0 && m.focus > 0 {
		m.focus--
	}
	m.digits[m.focus] = 0
}

// Type feeds a whole string through Press, for callers that get the code in
// one piece (paste, tests). Characters that any slot rejects are dropped.
func (m *Machine) Type(code string) {
	for i := 0; i < len(code); i++ {
		m.Press(code[i])
	}
}

func (m *Machine) advanceFocusLocked() {
	for i := m.focus + 1; i < len(m.digits); i++ {
		if m.digits[i] == 0 {
			m.focus = i
			return
		}
	}
	// No empty slot ahead; keep focus on the last slot so backspace still
	// edits the most recent digit.
	if m.focus < len(m.digits)-1 {
		m.focus = len(m.digits) - 1
	}
}
