package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newOpenPIN() *Machine {
	m := New(PINConfig(), WithVerifier(&stubAuthority{}), WithCreator(&stubAuthority{}))
	m.Open(FlowVerify, nil)
	return m
}

func TestPressAdvancesToNextEmptySlot(t *testing.T) {
	m := newOpenPIN()

	assert.True(t, m.Press('1'))
	assert.Equal(t, 1, m.Snapshot().Focus)
	assert.True(t, m.Press('2'))
	assert.True(t, m.Press('3'))
	assert.True(t, m.Press('4'))

	snap := m.Snapshot()
	assert.Equal(t, "1234", snap.Code)
	assert.True(t, snap.Complete)
	assert.Equal(t, 3, snap.Focus, "focus stops on the last slot when full")
}

func TestPressRejectsNonNumericInput(t *testing.T) {
	m := newOpenPIN()

	assert.False(t, m.Press('a'))
	assert.False(t, m.Press(' '))
	assert.False(t, m.Press('-'))
	assert.Empty(t, m.Snapshot().Code)
	assert.Equal(t, 0, m.Snapshot().Focus)
}

func TestBackspaceOnEmptySlotMovesBackAndClears(t *testing.T) {
	m := newOpenPIN()
	m.Press('1')
	m.Press('2') // focus now on slot 2, which is empty

	m.Backspace()
	snap := m.Snapshot()
	assert.Equal(t, "1", snap.Code, "previous slot cleared")
	assert.Equal(t, 1, snap.Focus)

	m.Backspace()
	snap = m.Snapshot()
	assert.Empty(t, snap.Code)
	assert.Equal(t, 0, snap.Focus)

	// backspace on the first empty slot stays put
	m.Backspace()
	assert.Equal(t, 0, m.Snapshot().Focus)
}

func TestBackspaceClearsFilledFocusedSlot(t *testing.T) {
	m := newOpenPIN()
	m.Type("1234") // full entry, focus on last slot

	m.Backspace()
	snap := m.Snapshot()
	assert.Equal(t, "123", snap.Code)
	assert.False(t, snap.Complete)
}

func TestPressFillsGapsBeforeAdvancing(t *testing.T) {
	m := newOpenPIN()
	m.Type("123")
	m.Backspace() // clear slot 2
	m.Backspace() // clear slot 1

	assert.Equal(t, "1", m.Snapshot().Code)
	m.Press('9')
	snap := m.Snapshot()
	assert.Equal(t, "19", snap.Code)
	assert.Equal(t, 2, snap.Focus, "focus advanced to the next empty slot")
}

func TestInputIgnoredWhenClosed(t *testing.T) {
	m := New(PINConfig(), WithVerifier(&stubAuthority{}), WithCreator(&stubAuthority{}))
	assert.False(t, m.Press('1'))
	m.Backspace() // no panic on a closed machine
}
