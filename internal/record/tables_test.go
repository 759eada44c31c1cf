package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotab/internal/columns"
)

func TestFileNames(t *testing.T) {
	assert.Equal(t, "GO_0017_inventory.csv", FileName(InventoryTable{}, "GO_0017"))
	tables := Tables(columns.Detailed, TilingMin)
	var names []string
	for _, tb := range tables {
		names = append(names, FileName(tb, "GO_0017"))
	}
	assert.Equal(t, []string{
		"GO_0017_sky_detailed.tab",
		"GO_0017_sun_detailed.tab",
		"GO_0017_ring_detailed.tab",
		"GO_0017_body_detailed.tab",
	}, names)
}

func TestInventoryRow(t *testing.T) {
	rec, _ := newRecord(t, columns.Summary)
	rows, err := InventoryTable{}.Rows(rec)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, volPrefix+","+filePrefix+`,"JUPITER,IO"`, rows[0].Line())
}

func TestBodyTableListsPrimaryThenBodiesInView(t *testing.T) {
	rec, _ := newRecord(t, columns.Summary)
	rows, err := BodyTable{tableBase{level: columns.Summary}}.Rows(rec)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, jupiter, rows[0].Fields[3])
	assert.Equal(t, ioName, rows[1].Fields[3])

	// The IO row picks up the longitude backplane; JUPITER has none.
	assert.True(t, anyFound(rows[1].Found))
	assert.False(t, anyFound(rows[0].Found))
	assert.Len(t, rows[0].Fields, 4+len(rec.Catalog.Body("JUPITER", columns.Summary)))
}

func TestRingTableSkipsUnringedPrimary(t *testing.T) {
	rec, _ := newRecord(t, columns.Detailed)
	rows, err := RingTable{tableBase{level: columns.Detailed, tilingMin: TilingMin}}.Rows(rec)
	require.NoError(t, err)
	require.Len(t, rows, 1, "missing ring geometry falls back to one untiled row")
	assert.Equal(t, " 0", rows[0].Fields[3])

	rec.Primary = "MARS"
	rows, err = RingTable{tableBase{level: columns.Detailed}}.Rows(rec)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSkyTableHasNoBodyFields(t *testing.T) {
	rec, _ := newRecord(t, columns.Summary)
	rows, err := SkyTable{tableBase{level: columns.Summary}}.Rows(rec)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Fields, 2+len(rec.Catalog.Sky()))
}

func TestAccumulatorTracksUnusedColumns(t *testing.T) {
	acc := NewAccumulator(SunTable{})
	assert.Empty(t, acc.Unused())

	acc.Append([]Row{
		{Fields: []string{"a", "1"}, Found: []bool{true, false, false}},
		{Fields: []string{"b", "2"}, Found: []bool{false, false, true}},
	})
	assert.Equal(t, []string{"a,1", "b,2"}, acc.Lines())
	assert.Equal(t, []int{1}, acc.Unused())
}
