package guard

import (
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInFlightSerialization(t *testing.T) {
	clk := clock.NewFake()
	g := New(clk, DefaultWindow, nil)

	release, err := g.Admit(10, 1, 0)
	require.NoError(t, err)

	// same conversation: dropped while the first handler runs
	_, err = g.Admit(10, 1, 0)
	assert.ErrorIs(t, err, ErrInFlight)

	// different topic is a different conversation
	clk.Add(time.Second)
	release2, err := g.Admit(10, 1, 7)
	require.NoError(t, err)
	release2()

	release()
	clk.Add(time.Second)
	release3, err := g.Admit(10, 1, 0)
	require.NoError(t, err)
	release3()
}

func TestFloodWindow(t *testing.T) {
	clk := clock.NewFake()
	g := New(clk, DefaultWindow, nil)

	release, err := g.Admit(10, 1, 0)
	require.NoError(t, err)
	release()

	// 100ms later: inside the window
	clk.Add(100 * time.Millisecond)
	_, err = g.Admit(10, 1, 0)
	assert.ErrorIs(t, err, ErrFlood)

	// the violation restarted the window, so this is still inside it
	clk.Add(350 * time.Millisecond)
	_, err = g.Admit(10, 1, 0)
	assert.ErrorIs(t, err, ErrFlood)

	clk.Add(700 * time.Millisecond)
	release, err = g.Admit(10, 1, 0)
	require.NoError(t, err)
	release()
}

func TestSlowHandlerDoesNotExtendWindow(t *testing.T) {
	clk := clock.NewFake()
	g := New(clk, DefaultWindow, nil)

	release, err := g.Admit(10, 1, 0)
	require.NoError(t, err)
	clk.Add(700 * time.Millisecond) // handler outlives the window
	release()

	// spacing is measured from admission, not from completion
	release, err = g.Admit(10, 1, 0)
	require.NoError(t, err)
	release()
}

func TestAdminExempt(t *testing.T) {
	clk := clock.NewFake()
	g := New(clk, DefaultWindow, []int64{99})

	for i := 0; i < 5; i++ {
		release, err := g.Admit(10, 99, 0)
		require.NoError(t, err)
		release()
	}
}

func TestFloodDoesNotAffectOtherUsers(t *testing.T) {
	clk := clock.NewFake()
	g := New(clk, DefaultWindow, nil)

	release, err := g.Admit(10, 1, 0)
	require.NoError(t, err)
	release()

	_, err = g.Admit(10, 1, 0)
	assert.ErrorIs(t, err, ErrFlood)

	release, err = g.Admit(10, 2, 0)
	require.NoError(t, err)
	release()
}
