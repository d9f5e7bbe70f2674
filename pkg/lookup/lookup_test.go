package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeLabel(t *testing.T) {
	id := 10
	label := MakeLabel(SessionType, &id, "SessionType")
	require.NotNil(t, label.ID)
	assert.Equal(t, 10, *label.ID)
	assert.Equal(t, "Race", label.Name)

	unknown := 200
	label = MakeLabel(SessionType, &unknown, "SessionType")
	assert.Equal(t, "SessionType(200)", label.Name)

	label = MakeLabel(SessionType, nil, "SessionType")
	assert.Nil(t, label.ID)
	assert.Equal(t, "SessionType(None)", label.Name)
}

func TestNameOrDefault(t *testing.T) {
	assert.Equal(t, "Silverstone", NameOrDefault(Tracks, 7, "Track"))
	assert.Equal(t, "Track(211)", NameOrDefault(Tracks, 211, "Track"))
	assert.Equal(t, "TimePenalty", NameOrDefault(PenaltyType, 4, "PenaltyType"))
}
