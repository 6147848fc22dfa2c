package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChinaBrands(t *testing.T) {
	m := ChinaBrands()
	assert.Equal(t, 31, m.Len())

	brand, ok := m.Translate(" 比亚迪 ")
	assert.True(t, ok)
	assert.Equal(t, "BYD", brand)

	brand, ok = m.Translate("五菱（银标）")
	assert.True(t, ok)
	assert.Equal(t, "Wuling (Silver)", brand)

	_, ok = m.Translate("极氪")
	assert.False(t, ok)
	_, ok = m.Translate("")
	assert.False(t, ok)
}

func TestEuropeBrandsIgnoreCaseAndFootnotes(t *testing.T) {
	m := EuropeBrands()
	for label, want := range map[string]string{
		"VOLKSWAGEN GROUP": "Volkswagen Group",
		"Stellantis*":      "Stellantis",
		"Mercedes (1)":     "Benz",
		"Volvo  Cars²":     "Volvo",
		"Opel/Vauxhall":    "Opel",
	} {
		brand, ok := m.Translate(label)
		assert.True(t, ok, label)
		assert.Equal(t, want, brand, label)
	}

	_, ok := m.Translate("Total EU + EFTA + UK")
	assert.False(t, ok)
}

func TestUSBrandsPassThrough(t *testing.T) {
	brand, ok := USBrands().Translate("  Mercedes-Benz ")
	assert.True(t, ok)
	assert.Equal(t, "Mercedes-Benz", brand)
}

func TestLoadBrandOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("China:\n  极氪: ZEEKR\n  比亚迪: BYD Auto\nus:\n  Chevy: Chevrolet\n"), 0o644))

	overrides, err := LoadBrandOverrides(path)
	require.NoError(t, err)

	china, err := BrandsFor(RegionChina, overrides)
	require.NoError(t, err)
	brand, ok := china.Translate("极氪")
	assert.True(t, ok)
	assert.Equal(t, "ZEEKR", brand)
	brand, _ = china.Translate("比亚迪")
	assert.Equal(t, "BYD Auto", brand)

	us, err := BrandsFor(RegionUS, overrides)
	require.NoError(t, err)
	brand, _ = us.Translate("Chevy")
	assert.Equal(t, "Chevrolet", brand)
	brand, _ = us.Translate("Ford")
	assert.Equal(t, "Ford", brand)

	_, err = BrandsFor("mars", overrides)
	assert.Error(t, err)
}

func TestLoadBrandOverridesErrors(t *testing.T) {
	_, err := LoadBrandOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("china: [not, a, map]\n"), 0o644))
	_, err = LoadBrandOverrides(path)
	assert.Error(t, err)
}
