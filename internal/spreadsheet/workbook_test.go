package spreadsheet

import (
	"path/filepath"
	"testing"
	"time"

	"sjsage522/carsales/internal/sales"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	jan = sales.NewMonth(2025, time.January)
	feb = sales.NewMonth(2025, time.February)
	mar = sales.NewMonth(2025, time.March)
)

// writeFixture saves a workbook with a Brands sheet of the given rows and a Notes sheet
func writeFixture(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Brands"))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Brands", cell, &r))
	}
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "keep me"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestOpenMissingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "china.xlsx")
	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	assert.True(t, wb.IsNew())
	assert.False(t, wb.HasSheet("Sheet1"))

	table, err := wb.ReadTable("Brands", BrandLayout())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, []string{"Brand"}, table.Labels)
}

func TestReadTableMixedHeaders(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		{"", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), "2025-02", "2025-02-01 00:00:00"},
		{"BYD", 300538, 318233, 999},
		{"Geely", 180000, nil, 170000},
		{"", 5},
		{"BYD", 1, 2, 3},
	})

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	table, err := wb.ReadTable("Brands", BrandLayout())
	require.NoError(t, err)

	assert.Equal(t, []string{"Brand"}, table.Labels)
	assert.Equal(t, []sales.Month{jan, feb}, table.Months())
	assert.Equal(t, []string{"BYD", "Geely"}, table.Brands())

	want := []sales.Record{
		{Brand: "BYD", Month: jan, Units: 300538},
		{Brand: "BYD", Month: feb, Units: 318233},
		{Brand: "Geely", Month: jan, Units: 180000},
		{Brand: "Geely", Month: feb, Units: 170000},
	}
	if diff := cmp.Diff(want, table.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTableLocatesKeyByPosition(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		{"Maker", "Name", "2025-01"},
		{"Toyota Motor", "Toyota", 165753},
		{"Toyota Motor", "Lexus", 25000},
	})

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	table, err := wb.ReadTable("Brands", USLayout())
	require.NoError(t, err)

	assert.Equal(t, "Name", table.Key())
	assert.Equal(t, []string{"Toyota", "Lexus"}, table.Brands())
	assert.Equal(t, "Toyota Motor", table.Label("Lexus", "Maker"))
}

func TestWriteTableRoundTrip(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		{"Automaker", "Brand", "2025-01", "2025-02", "Notes"},
		{"Toyota Motor", "Toyota", 165753, 180064, "x"},
		{"Ford Motor", "Ford", 150660, 160000, "y"},
		{"Stellantis", "Jeep", 50000, 52000, "z"},
	})

	wb, err := Open(path)
	require.NoError(t, err)
	table, err := wb.ReadTable("Brands", USLayout())
	require.NoError(t, err)
	assert.Equal(t, []string{"Automaker", "Brand", "Notes"}, table.Labels)

	incoming := sales.NewBrandTable()
	incoming.Set("Toyota", mar, 233045)
	incoming.Set("Ford", mar, 200100)
	sales.Merge(table, incoming, sales.ReplaceMonths)

	require.NoError(t, wb.WriteTable("Brands", table))
	require.NoError(t, wb.Save())
	require.NoError(t, wb.Close())

	wb, err = Open(path)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Brands", "Notes"}, wb.Sheets())
	reread, err := wb.ReadTable("Brands", USLayout())
	require.NoError(t, err)
	if diff := cmp.Diff(table.Records(), reread.Records()); diff != "" {
		t.Errorf("records changed by round trip (-written +read):\n%s", diff)
	}
	assert.Equal(t, "x", reread.Label("Toyota", "Notes"))
	assert.Equal(t, "Stellantis", reread.Label("Jeep", "Automaker"))

	header, err := wb.file.GetRows("Brands")
	require.NoError(t, err)
	assert.Equal(t, []string{"Automaker", "Brand", "Notes", "2025-01", "2025-02", "2025-03"}, header[0])

	note, err := wb.file.GetCellValue("Notes", "A1")
	require.NoError(t, err)
	assert.Equal(t, "keep me", note)
}

// irregularRows holds rows that do not map cleanly onto a brand key
var irregularRows = [][]interface{}{
	{"Automaker", "Brand", "2025-01"},
	{"GM", "Chevrolet", 100},
	{"Stellantis", "", 70},
	{"Ford", "Ford", 50},
	{"Ford", "Ford", 60},
	{"GM", "Cadillac", "n/a"},
	{"Total", "", 280},
}

// rewrite reads the Brands sheet, merges incoming, writes it back and returns the raw rows on disk
func rewrite(t *testing.T, path string, incoming *sales.Table, policy sales.Policy) (*sales.Table, sales.MergeStats, [][]string) {
	t.Helper()
	wb, err := Open(path)
	require.NoError(t, err)
	table, err := wb.ReadTable("Brands", USLayout())
	require.NoError(t, err)
	stats := sales.Merge(table, incoming, policy)
	require.NoError(t, wb.WriteTable("Brands", table))
	require.NoError(t, wb.Save())
	require.NoError(t, wb.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Brands", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return table, stats, rows
}

func TestReadTableKeepsIrregularRows(t *testing.T) {
	path := writeFixture(t, irregularRows)
	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	table, err := wb.ReadTable("Brands", USLayout())
	require.NoError(t, err)

	assert.Equal(t, []string{"Chevrolet", "Ford", "Cadillac"}, table.Brands())
	assert.Equal(t, 3, table.Len())
	require.Len(t, table.Rows(), 6)

	stellantis := table.Rows()[1]
	assert.True(t, stellantis.Passthrough)
	assert.Equal(t, []string{"Stellantis", ""}, stellantis.Labels)
	assert.Equal(t, map[sales.Month]int64{jan: 70}, stellantis.Values)

	second := table.Rows()[3]
	assert.True(t, second.Passthrough)
	assert.Equal(t, map[sales.Month]int64{jan: 60}, second.Values)

	v, _ := table.Get("Ford", jan)
	assert.Equal(t, int64(50), v)
	assert.Equal(t, "n/a", table.Row("Cadillac").Text[jan])
}

func TestReadMergeWriteKeepsEveryRow(t *testing.T) {
	path := writeFixture(t, irregularRows)

	incoming := sales.NewBrandTable()
	incoming.Set("Chevrolet", feb, 10)
	incoming.Set("Ford", feb, 55)
	incoming.Set("Cadillac", jan, 5)
	incoming.Set("Tesla", feb, 40)

	table, stats, rows := rewrite(t, path, incoming, sales.KeepExisting)
	assert.Equal(t, 3, stats.Written)
	assert.Equal(t, 1, stats.Conflicts)
	assert.Len(t, table.Rows(), 7)

	want := [][]string{
		{"Automaker", "Brand", "2025-01", "2025-02"},
		{"GM", "Chevrolet", "100", "10"},
		{"Stellantis", "", "70"},
		{"Ford", "Ford", "50", "55"},
		{"Ford", "Ford", "60"},
		{"GM", "Cadillac", "n/a"},
		{"Total", "", "280"},
		{"", "Tesla", "", "40"},
	}
	assert.Equal(t, want, rows)

	// a second identical run leaves the sheet as it is
	_, stats, rows = rewrite(t, path, incoming, sales.KeepExisting)
	assert.Equal(t, 0, stats.Written)
	assert.Equal(t, want, rows)
}

func TestReplaceMonthsLeavesPassthroughRows(t *testing.T) {
	path := writeFixture(t, irregularRows)

	incoming := sales.NewBrandTable()
	incoming.Set("Ford", jan, 55)

	_, stats, rows := rewrite(t, path, incoming, sales.ReplaceMonths)
	assert.Equal(t, 2, stats.Cleared)

	assert.Equal(t, [][]string{
		{"Automaker", "Brand", "2025-01"},
		{"GM", "Chevrolet"},
		{"Stellantis", "", "70"},
		{"Ford", "Ford", "55"},
		{"Ford", "Ford", "60"},
		{"GM", "Cadillac"},
		{"Total", "", "280"},
	}, rows)
}

func TestWriteTableClearsStaleCells(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		{"Brand", "2024-11", "2024-12", "2025-01"},
		{"BYD", 1, 2, 3},
		{"Geely", 4, 5, 6},
		{"Tesla", 7, 8, 9},
	})

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	table := sales.NewBrandTable()
	table.Set("BYD", jan, 300538)
	require.NoError(t, wb.WriteTable("Brands", table))

	for _, cell := range []string{"C1", "D1", "C2", "A3", "B4", "D4"} {
		v, err := wb.file.GetCellValue("Brands", cell)
		require.NoError(t, err)
		assert.Empty(t, v, cell)
	}

	reread, err := wb.ReadTable("Brands", BrandLayout())
	require.NoError(t, err)
	assert.Equal(t, table.Records(), reread.Records())
}

func TestWriteTableNewWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "china.xlsx")
	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	table := sales.NewBrandTable()
	table.Set("BYD", mar, 377420)
	table.Set("Tesla", mar, 74127)
	require.NoError(t, wb.WriteTable("Brands", table))
	require.NoError(t, wb.Save())

	assert.False(t, wb.IsNew())
	assert.Equal(t, []string{"Brands"}, wb.Sheets())

	panes, err := wb.file.GetPanes("Brands")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, "B2", panes.TopLeftCell)
	assert.Equal(t, 1, panes.XSplit)
	assert.Equal(t, 1, panes.YSplit)

	styleID, err := wb.file.GetCellStyle("Brands", "B2")
	require.NoError(t, err)
	style, err := wb.file.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.CustomNumFmt)
	assert.Equal(t, NumberFormat, *style.CustomNumFmt)
}

func TestFormatRewritesDateHeaders(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		{"Brand", time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), "2025-01-01"},
		{"BYD", 1, 2},
	})

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, wb.Format("Brands"))

	for cell, want := range map[string]string{"B1": "2024-12", "C1": "2025-01"} {
		v, err := wb.file.GetCellValue("Brands", cell)
		require.NoError(t, err)
		assert.Equal(t, want, v, cell)
	}

	assert.Error(t, wb.Format("Missing"))
}

func TestAddSnapshotUniqueName(t *testing.T) {
	path := writeFixture(t, [][]interface{}{{"Brand"}})
	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	rows := [][]string{{"% share", "March"}, {"Volkswagen Group", "26.8", "369,716"}}

	name, err := wb.AddSnapshot("2025-03", rows)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", name)

	name, err = wb.AddSnapshot("2025-03", rows)
	require.NoError(t, err)
	assert.Equal(t, "2025-03 (2)", name)

	name, err = wb.AddSnapshot("Brands", rows)
	require.NoError(t, err)
	assert.Equal(t, "Brands (2)", name)

	got, err := wb.file.GetRows("2025-03 (2)")
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	assert.Equal(t, []string{"Brands", "Notes", "2025-03", "2025-03 (2)", "Brands (2)"}, wb.Sheets())
}

func TestHeaderMonth(t *testing.T) {
	m, ok := headerMonth("45658")
	assert.True(t, ok)
	assert.Equal(t, jan, m)

	m, ok = headerMonth("2025-03")
	assert.True(t, ok)
	assert.Equal(t, mar, m)

	for _, raw := range []string{"2024", "Brand", "", "-1"} {
		_, ok := headerMonth(raw)
		assert.False(t, ok, raw)
	}
}

func TestParseCellUnits(t *testing.T) {
	for raw, want := range map[string]int64{"250000": 250000, "2.5E+5": 250000, "1,234": 1234, "0": 0} {
		v, err := parseCellUnits(raw)
		assert.NoError(t, err, raw)
		assert.Equal(t, want, v, raw)
	}
	for _, raw := range []string{"1.5", "-3", "n/a", "9.223372036854776e18", "1e19"} {
		_, err := parseCellUnits(raw)
		assert.Error(t, err, raw)
	}
}
