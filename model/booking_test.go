package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(BookingPending, BookingConfirmed))
	assert.True(t, CanTransition(BookingPending, BookingCancelled))
	assert.True(t, CanTransition(BookingPending, BookingExpired))
	assert.True(t, CanTransition(BookingConfirmed, BookingRefunded))
	assert.True(t, CanTransition(BookingConfirmed, BookingCancelled))

	// trạng thái terminal không đi đâu nữa
	assert.False(t, CanTransition(BookingExpired, BookingConfirmed))
	assert.False(t, CanTransition(BookingRefunded, BookingPending))
	assert.False(t, CanTransition(BookingPending, BookingRefunded))
	assert.False(t, CanTransition(BookingConfirmed, BookingPending))
}

func TestTerminalStatus(t *testing.T) {
	assert.False(t, TerminalStatus(BookingPending))
	assert.False(t, TerminalStatus(BookingConfirmed))
	assert.True(t, TerminalStatus(BookingCancelled))
	assert.True(t, TerminalStatus(BookingRefunded))
	assert.True(t, TerminalStatus(BookingExpired))
}
