package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, "Emma Rodriguez", s.Child.Name)
	assert.Equal(t, "Blue Honda Civic (7ABC123)", s.Vehicle.Describe())
}

func TestLoadEmptyPath(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := `
child:
  name: Liam Chen
zones:
  - Oakland
  - Berkeley
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Liam Chen", s.Child.Name)
	assert.Equal(t, []string{"Oakland", "Berkeley"}, s.Zones)
	// untouched sections keep their built-in values
	assert.Equal(t, Default().Channels, s.Channels)
	assert.Equal(t, Default().Vehicle, s.Vehicle)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("child: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("tip:\n  confidence: 3\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "tip confidence")
}

func TestVehicleDescribe(t *testing.T) {
	assert.Equal(t, "", Vehicle{}.Describe())
	assert.Equal(t, "XYZ", Vehicle{Plate: "XYZ"}.Describe())
	assert.Equal(t, "Red Ford", Vehicle{Color: "Red", Make: "Ford"}.Describe())
}
