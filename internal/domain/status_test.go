package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_ForwardChain(t *testing.T) {
	chain := []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, CanTransition(chain[i], chain[i+1]), "%s -> %s", chain[i], chain[i+1])
		assert.False(t, CanTransition(chain[i+1], chain[i]), "%s -> %s", chain[i+1], chain[i])
	}
	assert.False(t, CanTransition(StatusPending, StatusDelivered))
}

func TestCanTransition_CancelFromNonTerminal(t *testing.T) {
	for _, s := range Statuses {
		if s.Terminal() {
			continue
		}
		assert.True(t, CanTransition(s, StatusCancelled), "cancel from %s", s)
	}
	assert.False(t, CanTransition(StatusDelivered, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
}

func TestStatusMode_CheckTransition(t *testing.T) {
	err := StatusModeStrict.CheckTransition(StatusDelivered, StatusPending)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalTransition))

	assert.NoError(t, StatusModeLenient.CheckTransition(StatusDelivered, StatusPending))

	var verr *ValidationError
	err = StatusModeLenient.CheckTransition(StatusPending, OrderStatus("shipped"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"status"}, verr.Fields())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus(" Delivered ")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseOrderStatus("returned")
	assert.Error(t, err)
}

func TestParseStatusMode(t *testing.T) {
	assert.Equal(t, StatusModeLenient, ParseStatusMode("LENIENT"))
	assert.Equal(t, StatusModeStrict, ParseStatusMode(""))
	assert.Equal(t, StatusModeStrict, ParseStatusMode("whatever"))
}
