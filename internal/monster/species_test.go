package monster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monsterbattle/internal/element"
	"monsterbattle/internal/stats"
)

const catalogYAML = `species:
  - name: Flamikin
    description: A small flame.
    element: Fire
    evolution: Infernoth
    spawnable: true
    simple: {attack: 6, defense: 4, speed: 8, max_hp: 10}
    complex:
      attack: "6 level 2 / +"
      defense: "4 level sqrt +"
      speed: "level 8 12 middle"
      max_hp: "10 level 1 - 3 * +"
  - name: Infernoth
    element: Fire
    spawnable: false
    simple: {attack: 12, defense: 8, speed: 7, max_hp: 15}
    complex:
      attack: "12 level 2 / +"
      defense: "8 level sqrt +"
      speed: "level 7 11 middle"
      max_hp: "15 level 1 - 3 * +"
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML))
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	flamikin, err := c.Get("FLAMIKIN")
	require.NoError(t, err)
	assert.Equal(t, "A small flame.", flamikin.Description)
	assert.Equal(t, "Fire", flamikin.Element)
	assert.True(t, flamikin.Spawnable)
	require.NotNil(t, flamikin.EvolvesTo())
	assert.Equal(t, "Infernoth", flamikin.EvolvesTo().Name)

	require.NotNil(t, flamikin.Complex)
	assert.Equal(t, stats.Stats{Attack: 8, Defense: 6, Speed: 8, MaxHP: 19}, flamikin.Complex.At(4))

	infernoth, err := c.Get("Infernoth")
	require.NoError(t, err)
	assert.Nil(t, infernoth.EvolvesTo())
	require.NotNil(t, infernoth.Complex)
	assert.Equal(t, 10, infernoth.Complex.At(4).Defense)

	spawnable := c.Spawnable()
	require.Len(t, spawnable, 1)
	assert.Equal(t, "Flamikin", spawnable[0].Name)
	assert.Equal(t, []*Species{flamikin, infernoth}, c.All())
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "unknown evolution",
			yaml: "species:\n  - {name: A, element: Fire, evolution: B, simple: {attack: 1, defense: 1, speed: 1, max_hp: 1}}\n",
			want: ErrUnknownEvolution,
		},
		{
			name: "duplicate",
			yaml: "species:\n  - {name: A, element: Fire, simple: {attack: 1, defense: 1, speed: 1, max_hp: 1}}\n  - {name: a, element: Fire, simple: {attack: 1, defense: 1, speed: 1, max_hp: 1}}\n",
			want: ErrDuplicateSpecies,
		},
		{
			name: "no stats",
			yaml: "species:\n  - {name: A, element: Fire}\n",
			want: ErrMissingStats,
		},
		{
			name: "evolution lacks complex stats",
			yaml: "species:\n  - {name: A, element: Fire, evolution: B, complex: {attack: '1', defense: '1', speed: '1', max_hp: '1'}}\n  - {name: B, element: Fire, simple: {attack: 1, defense: 1, speed: 1, max_hp: 1}}\n",
			want: ErrMissingStats,
		},
		{
			name: "evolution lacks simple stats",
			yaml: "species:\n  - {name: A, element: Fire, evolution: B, simple: {attack: 1, defense: 1, speed: 1, max_hp: 1}, complex: {attack: '1', defense: '1', speed: '1', max_hp: '1'}}\n  - {name: B, element: Fire, complex: {attack: '1', defense: '1', speed: '1', max_hp: '1'}}\n",
			want: ErrMissingStats,
		},
		{
			name: "bad formula",
			yaml: "species:\n  - {name: A, element: Fire, complex: {attack: '1 +', defense: '1', speed: '1', max_hp: '1'}}\n",
			want: stats.ErrStackUnderflow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseCatalog_InvalidYAML(t *testing.T) {
	_, err := ParseCatalog([]byte("species: [unclosed"))
	assert.Error(t, err)
}

func TestCatalog_Validate(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML))
	require.NoError(t, err)
	require.NoError(t, c.Validate(testTable(t)))

	other, err := element.NewTable([]string{"Water"}, []float64{1})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Validate(other), element.ErrUnknownElement)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = LoadCatalog("non_existent_file.yaml")
	assert.Error(t, err)
}

func TestLoadCatalog_ShippedData(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", "data", "species.yaml"))
	require.NoError(t, err)
	tbl, err := element.LoadCSV(filepath.Join("..", "..", "data", "type_effectiveness.csv"))
	require.NoError(t, err)
	require.NoError(t, c.Validate(tbl))

	assert.Equal(t, 41, c.Len())
	assert.NotEmpty(t, c.Spawnable())
	for _, sp := range c.All() {
		for _, mode := range []StatMode{SimpleStats, ComplexStats} {
			m, err := New(sp, 1, mode, tbl)
			require.NoError(t, err, "%s %s", sp.Name, mode)
			assert.Positive(t, m.MaxHP(), "%s %s", sp.Name, mode)
		}
	}
}

func TestParseStatMode(t *testing.T) {
	m, err := ParseStatMode("")
	require.NoError(t, err)
	assert.Equal(t, SimpleStats, m)

	m, err = ParseStatMode("Complex")
	require.NoError(t, err)
	assert.Equal(t, ComplexStats, m)
	assert.Equal(t, "complex", m.String())

	_, err = ParseStatMode("hard")
	assert.Error(t, err)
}
