package sales

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var (
	jan = NewMonth(2025, time.January)
	feb = NewMonth(2025, time.February)
	mar = NewMonth(2025, time.March)
)

func TestMergeAddsMonthWithoutRemovingPriorMonths(t *testing.T) {
	existing := NewBrandTable()
	existing.Set("BYD", jan, 300538)
	existing.Set("Geely", jan, 180000)
	existing.Set("BYD", feb, 318233)

	incoming := NewBrandTable()
	incoming.Set("BYD", mar, 377420)
	incoming.Set("Tesla", mar, 74127)

	stats := Merge(existing, incoming, KeepExisting)

	assert.Equal(t, []Month{jan, feb, mar}, existing.Months())
	assert.Equal(t, []string{"BYD", "Geely", "Tesla"}, existing.Brands())
	assert.Equal(t, []string{"Tesla"}, stats.AddedBrands)
	assert.Equal(t, []Month{mar}, stats.AddedMonths)
	assert.Equal(t, 2, stats.Written)

	v, ok := existing.Get("BYD", jan)
	assert.True(t, ok)
	assert.Equal(t, int64(300538), v)
	_, ok = existing.Get("Geely", mar)
	assert.False(t, ok)
}

func TestMergeKeepNeverOverwrites(t *testing.T) {
	existing := NewBrandTable()
	existing.Set("BYD", mar, 377420)

	incoming := NewBrandTable()
	incoming.Set("BYD", mar, 999)
	incoming.Set("Geely", mar, 230000)

	stats := Merge(existing, incoming, KeepExisting)

	v, _ := existing.Get("BYD", mar)
	assert.Equal(t, int64(377420), v)
	v, _ = existing.Get("Geely", mar)
	assert.Equal(t, int64(230000), v)
	assert.Equal(t, 1, stats.Conflicts)
	assert.Equal(t, 1, stats.Written)
}

func TestMergeReplaceRewritesOnlyIncomingMonths(t *testing.T) {
	existing := NewTable([]string{"Automaker", "Brand"}, 1)
	existing.Set("Toyota", NewMonth(2024, time.December), 200000)
	existing.Set("Toyota", jan, 1)
	existing.Set("Lexus", jan, 2)
	_ = existing.SetLabel("Toyota", "Automaker", "Toyota Motor")

	incoming := NewBrandTable()
	incoming.Set("Toyota", jan, 180000)
	incoming.Set("Honda", jan, 90000)

	stats := Merge(existing, incoming, ReplaceMonths)

	v, _ := existing.Get("Toyota", jan)
	assert.Equal(t, int64(180000), v)
	v, _ = existing.Get("Toyota", NewMonth(2024, time.December))
	assert.Equal(t, int64(200000), v)
	_, ok := existing.Get("Lexus", jan)
	assert.False(t, ok)
	assert.Equal(t, 1, stats.Cleared)
	assert.Equal(t, "Toyota Motor", existing.Label("Toyota", "Automaker"))
	assert.Equal(t, []string{"Toyota", "Lexus", "Honda"}, existing.Brands())
}

func TestMergeCopiesMatchingLabels(t *testing.T) {
	existing := NewTable([]string{"Automaker", "Brand", "Notes"}, 1)
	existing.Set("Ford", jan, 150000)
	_ = existing.SetLabel("Ford", "Notes", "incl. Lincoln")

	incoming := NewTable([]string{"brand", "automaker"}, 0)
	incoming.Set("Ford", feb, 160000)
	incoming.Set("Kia", feb, 60000)
	_ = incoming.SetLabel("Ford", "automaker", "Ford Motor")
	_ = incoming.SetLabel("Kia", "automaker", "Hyundai Motor Group")

	Merge(existing, incoming, KeepExisting)

	assert.Equal(t, "Ford Motor", existing.Label("Ford", "Automaker"))
	assert.Equal(t, "incl. Lincoln", existing.Label("Ford", "Notes"))
	assert.Equal(t, "Hyundai Motor Group", existing.Label("Kia", "Automaker"))
}

func TestMergeIsIdempotent(t *testing.T) {
	incoming := NewBrandTable()
	incoming.Set("BYD", mar, 377420)
	incoming.Set("Tesla", mar, 74127)

	existing := NewBrandTable()
	Merge(existing, incoming, KeepExisting)
	first := existing.Records()

	stats := Merge(existing, incoming, KeepExisting)
	if diff := cmp.Diff(first, existing.Records()); diff != "" {
		t.Errorf("second merge changed records (-first +second):\n%s", diff)
	}
	assert.Equal(t, 2, stats.Unchanged)
	assert.Equal(t, 0, stats.Written)
	assert.Len(t, existing.Months(), 1)
}

func TestMergeLeavesPassthroughRows(t *testing.T) {
	existing := NewBrandTable()
	existing.Set("Ford", jan, 50)
	dup := existing.AddPassthrough([]string{"Ford"})
	dup.Values[jan] = 60
	total := existing.AddPassthrough([]string{""})
	total.Values[jan] = 110

	incoming := NewBrandTable()
	incoming.Set("Ford", jan, 70)
	incoming.Set("Ford", feb, 75)

	stats := Merge(existing, incoming, ReplaceMonths)

	assert.Equal(t, 2, stats.Written)
	assert.Equal(t, []string{"Ford"}, existing.Brands())
	assert.Len(t, existing.Rows(), 3)
	assert.Equal(t, map[Month]int64{jan: 60}, dup.Values)
	assert.Equal(t, map[Month]int64{jan: 110}, total.Values)
	assert.Equal(t, []Record{
		{Brand: "Ford", Month: jan, Units: 70},
		{Brand: "Ford", Month: feb, Units: 75},
	}, existing.Records())
}

func TestMergeTextCells(t *testing.T) {
	existing := NewBrandTable()
	r, _ := existing.AddBrand("Cadillac")
	r.Text[jan] = "n/a"
	existing.AddMonth(jan)

	incoming := NewBrandTable()
	incoming.Set("Cadillac", jan, 5)

	stats := Merge(existing, incoming, KeepExisting)
	assert.Equal(t, 1, stats.Conflicts)
	assert.Equal(t, "n/a", r.Text[jan])
	_, ok := existing.Get("Cadillac", jan)
	assert.False(t, ok)

	stats = Merge(existing, incoming, ReplaceMonths)
	assert.Equal(t, 1, stats.Written)
	assert.Empty(t, r.Text)
	v, _ := existing.Get("Cadillac", jan)
	assert.Equal(t, int64(5), v)
}

func TestDropEmptyMonths(t *testing.T) {
	table := NewBrandTable()
	table.Set("Toyota", jan, 180000)
	table.Set("Toyota", feb, 0)
	table.Set("Honda", feb, 0)
	table.AddMonth(mar)

	dropped := table.DropEmptyMonths()
	assert.Equal(t, []Month{feb, mar}, dropped)
	assert.Equal(t, []Month{jan}, table.Months())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Replace")
	assert.NoError(t, err)
	assert.Equal(t, ReplaceMonths, p)
	assert.Equal(t, "replace", p.String())

	p, err = ParsePolicy("")
	assert.NoError(t, err)
	assert.Equal(t, KeepExisting, p)

	_, err = ParsePolicy("overwrite")
	assert.Error(t, err)
}
