package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDPrefersConfiguredID(t *testing.T) {
	t.Setenv("AGRIDIARY_INSTANCE_ID", "api-1")
	t.Setenv("DYNO", "web.1")
	require.Equal(t, "api-1", GetID())
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("AGRIDIARY_INSTANCE_ID", "")
	t.Setenv("DYNO", "web.2")
	require.Equal(t, "web.2", GetID())
}

func TestGetIDNeverEmpty(t *testing.T) {
	t.Setenv("AGRIDIARY_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	require.NotEmpty(t, GetID())
}
