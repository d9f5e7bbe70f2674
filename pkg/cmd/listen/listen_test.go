package listen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/overtake/league-capture/log"
)

func TestIsTerminalSession(t *testing.T) {
	assert.True(t, isTerminalSession(10))  // race
	assert.True(t, isTerminalSession(11))  // race 2
	assert.True(t, isTerminalSession(13))  // sprint
	assert.False(t, isTerminalSession(5))  // qualifying
	assert.False(t, isTerminalSession(1))  // practice
	assert.False(t, isTerminalSession(-1)) // never seen a session packet
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, parseLogLevel("debug", log.InfoLevel))
	assert.Equal(t, log.InfoLevel, parseLogLevel("bogus", log.InfoLevel))
}
