package hotbench

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/hhkbp2/testify/require"
)

func TestStatusType(t *testing.T) {
	require.Equal(t, "OK", StatusOK.String())
	require.Equal(t, "NOT_FOUND", StatusNotFound.String())
	require.Equal(t, "SERVICE_UNAVAILABLE", StatusServiceUnavailable.String())
	require.Equal(t, "UNKNOWN_STATUS", StatusType(0).String())
}

func TestNewDB(t *testing.T) {
	props := Properties{"k": "v"}
	db, err := NewDB("memory", props)
	require.Nil(t, err)
	_, ok := db.(*MemoryDB)
	require.True(t, ok)
	require.Equal(t, "v", db.GetProperties().Get("k"))

	_, err = NewDB("nosql", props)
	require.True(t, errors.Is(err, ErrUnsupportedDB))
}

func TestRegisterDB(t *testing.T) {
	RegisterDB("test-basic", func() DB {
		return NewBasicDB()
	})
	found := false
	names := DatabaseNames()
	for i, name := range names {
		if i > 0 {
			require.True(t, names[i-1] < name)
		}
		if name == "test-basic" {
			found = true
		}
	}
	require.True(t, found)
	db, err := NewDB("test-basic", NewProperties())
	require.Nil(t, err)
	_, ok := db.(*BasicDB)
	require.True(t, ok)
}

func newTestMeasurements(t *testing.T) *DefaultMeasurements {
	m, err := NewDefaultMeasurements(NewProperties())
	require.Nil(t, err)
	return m
}

func exportText(t *testing.T, m Measurements) string {
	var buf bytes.Buffer
	exporter := NewTextMeasurementExporter(&buf)
	require.Nil(t, m.ExportMeasurements(exporter))
	require.Nil(t, exporter.Close())
	return buf.String()
}

func TestMeasuredDB(t *testing.T) {
	name := t.Name()
	defer DropMemoryStore(name)
	props := Properties{ConfigMemoryDBName: name}
	db, err := NewDB("memory", props)
	require.Nil(t, err)
	m := newTestMeasurements(t)
	measured := NewMeasuredDB(db, m)
	require.Nil(t, measured.Init())

	require.Equal(t, StatusOK, measured.Insert("t", "k", KVMap{"f": Binary("v")}))
	ret, status := measured.Read("t", "k", nil)
	require.Equal(t, StatusOK, status)
	require.Equal(t, "v", string(ret["f"]))
	_, status = measured.Read("t", "missing", nil)
	require.Equal(t, StatusNotFound, status)
	require.Equal(t, StatusOK, measured.Update("t", "k", KVMap{"f": Binary("w")}))
	_, status = measured.Scan("t", "", 10, nil)
	require.Equal(t, StatusOK, status)
	require.Equal(t, StatusOK, measured.Delete("t", "k"))
	require.Nil(t, measured.Cleanup())

	out := exportText(t, m)
	require.True(t, strings.Contains(out, "[READ], Operations, 1\n"))
	require.True(t, strings.Contains(out, "[READ], Return=OK, 1\n"))
	require.True(t, strings.Contains(out, "[READ], Return=NOT_FOUND, 1\n"))
	require.True(t, strings.Contains(out, "[READ-FAILED], Operations, 1\n"))
	require.True(t, strings.Contains(out, "[INSERT], Operations, 1\n"))
	require.True(t, strings.Contains(out, "[UPDATE], Operations, 1\n"))
	require.True(t, strings.Contains(out, "[SCAN], Operations, 1\n"))
	require.True(t, strings.Contains(out, "[DELETE], Operations, 1\n"))
	require.True(t, strings.Contains(out, "[CLEANUP], Operations, 1\n"))
}

func TestMeasuredDBReportLatencyForEachError(t *testing.T) {
	name := t.Name()
	defer DropMemoryStore(name)
	props := Properties{
		ConfigMemoryDBName:                name,
		PropertyReportLatencyForEachError: "true",
	}
	db, err := NewDB("memory", props)
	require.Nil(t, err)
	m := newTestMeasurements(t)
	measured := NewMeasuredDB(db, m)
	require.Nil(t, measured.Init())
	require.Equal(t, StatusNotFound, measured.Delete("t", "missing"))

	out := exportText(t, m)
	require.True(t, strings.Contains(out, "[DELETE-NOT_FOUND], Operations, 1\n"))
	require.True(t, strings.Contains(out, "[DELETE], Return=NOT_FOUND, 1\n"))
	require.False(t, strings.Contains(out, "DELETE-FAILED"))

	measured = NewMeasuredDB(NewMemoryDB(), m)
	measured.SetProperties(Properties{PropertyReportLatencyForEachError: "sometimes"})
	require.True(t, errors.Is(measured.Init(), ErrInvalidProperty))
}
