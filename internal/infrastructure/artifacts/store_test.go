package artifacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string    `json:"name"`
	Coefs []float64 `json:"coefs"`
}

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore()
	path := filepath.Join(t.TempDir(), "models", "nested", "model.json")

	in := payload{Name: "dte", Coefs: []float64{1.5, -2.25}}
	require.NoError(t, s.Save(path, in), "save must create intermediate dirs")

	var out payload
	require.NoError(t, s.Load(path, &out))
	assert.Equal(t, in, out)
}

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore()

	var out payload
	err := s.Load(filepath.Join(t.TempDir(), "absent.json"), &out)
	assert.Error(t, err)
}

func TestStore_LoadCorrupt(t *testing.T) {
	s := NewStore()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, s.Save(path, payload{Name: "ok"}))

	var wrong []int
	assert.Error(t, s.Load(path, &wrong))
}
