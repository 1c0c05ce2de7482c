package hotbench

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	g "github.com/hhkbp2/hotbench/generator"
	"github.com/hhkbp2/testify/require"
)

// keyRecordingDB remembers the keys of every read.
type keyRecordingDB struct {
	*MemoryDB
	keys []string
}

func (self *keyRecordingDB) Read(table string, key string, fields []string) (KVMap, StatusType) {
	self.keys = append(self.keys, key)
	return self.MemoryDB.Read(table, key, fields)
}

func newTestWorkload(t *testing.T, props Properties) (*CoreWorkload, *DefaultMeasurements) {
	m, err := NewDefaultMeasurements(props)
	require.Nil(t, err)
	w, err := NewWorkload("CoreWorkload", m)
	require.Nil(t, err)
	require.Nil(t, w.Init(props))
	state, err := w.InitRoutine(props)
	require.Nil(t, err)
	require.Nil(t, state)
	return w.(*CoreWorkload), m
}

func loadRecords(t *testing.T, w *CoreWorkload, db DB, n int) {
	for i := 0; i < n; i++ {
		require.True(t, w.DoInsert(db, nil))
	}
}

func TestCoreWorkloadLoad(t *testing.T) {
	name := t.Name()
	defer DropMemoryStore(name)
	props := Properties{
		ConfigMemoryDBName:  name,
		PropertyRecordCount: "50",
		PropertyFieldCount:  "3",
		PropertyFieldLength: "8",
		PropertyInsertOrder: "ordered",
	}
	w, _ := newTestWorkload(t, props)
	db := newTestMemoryDB(t, name)
	loadRecords(t, w, db, 50)
	require.Equal(t, 50, db.Count(PropertyTableNameDefault))

	ret, status := db.Read(PropertyTableNameDefault, "user49", nil)
	require.Equal(t, StatusOK, status)
	require.Equal(t, 3, len(ret))
	for i := 0; i < 3; i++ {
		require.Equal(t, 8, len(ret["field"+strconv.Itoa(i)]))
	}
	require.Nil(t, w.Cleanup())
}

func TestCoreWorkloadKeyName(t *testing.T) {
	w, _ := newTestWorkload(t, Properties{PropertyInsertOrder: "ordered"})
	require.Equal(t, "user42", w.KeyName(42))
	w, _ = newTestWorkload(t, Properties{PropertyInsertOrder: "hashed"})
	require.Equal(t, "user"+strconv.FormatUint(g.Hash(42), 10), w.KeyName(42))
	require.NotEqual(t, w.KeyName(42), w.KeyName(43))
}

func TestCoreWorkloadHotspotReads(t *testing.T) {
	name := t.Name()
	defer DropMemoryStore(name)
	props := Properties{
		ConfigMemoryDBName:          name,
		PropertyRecordCount:         "100",
		PropertyFieldCount:          "1",
		PropertyFieldLength:         "4",
		PropertyInsertOrder:         "ordered",
		PropertyReadProportion:      "1",
		PropertyUpdateProportion:    "0",
		PropertyRequestDistribution: "hotspot",
		HotspotDataFraction:         "0.1",
		HotspotOpnFraction:          "0.9",
	}
	w, _ := newTestWorkload(t, props)
	db := &keyRecordingDB{MemoryDB: newTestMemoryDB(t, name)}
	loadRecords(t, w, db, 100)

	n := 5000
	for i := 0; i < n; i++ {
		require.True(t, w.DoTransaction(db, nil))
	}
	require.Equal(t, n, len(db.keys))
	hot := 0
	for _, key := range db.keys {
		require.True(t, strings.HasPrefix(key, "user"))
		keyNumber, err := strconv.ParseInt(strings.TrimPrefix(key, "user"), 10, 64)
		require.Nil(t, err)
		require.True(t, keyNumber >= 0 && keyNumber < 100)
		if keyNumber < 10 {
			hot++
		}
	}
	require.InDelta(t, 0.9, float64(hot)/float64(n), 0.03)
}

// exportStatusLine returns the exported count line of status for operation,
// or "" if there is none.
func exportStatusLine(t *testing.T, m Measurements, operation string, status StatusType) string {
	prefix := "[" + operation + "], Return=" + status.String() + ", "
	for _, line := range strings.Split(exportText(t, m), "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	return ""
}

func TestCoreWorkloadDataIntegrity(t *testing.T) {
	name := t.Name()
	defer DropMemoryStore(name)
	props := Properties{
		ConfigMemoryDBName:                name,
		PropertyRecordCount:               "20",
		PropertyFieldCount:                "4",
		PropertyFieldLength:               "32",
		PropertyDataIntegrity:             "true",
		PropertyReadProportion:            "0.5",
		PropertyUpdateProportion:          "0",
		PropertyReadModifyWriteProportion: "0.5",
		PropertyRequestDistribution:       "uniform",
	}
	w, m := newTestWorkload(t, props)
	db := newTestMemoryDB(t, name)
	loadRecords(t, w, db, 20)
	for i := 0; i < 200; i++ {
		require.True(t, w.DoTransaction(db, nil))
	}
	line := exportStatusLine(t, m, "VERIFY", StatusOK)
	require.True(t, len(line) > 0)
	require.Equal(t, "", exportStatusLine(t, m, "VERIFY", StatusUnexpectedState))
	require.Equal(t, "", exportStatusLine(t, m, "VERIFY", StatusError))

	key := w.KeyName(0)
	value := w.buildDeterministicValue(key, "field0")
	require.Equal(t, 32, len(value))
	require.True(t, strings.HasPrefix(string(value), key+":field0:"))
	require.Equal(t, value, w.buildDeterministicValue(key, "field0"))
}

func TestCoreWorkloadTransactionInsert(t *testing.T) {
	name := t.Name()
	defer DropMemoryStore(name)
	props := Properties{
		ConfigMemoryDBName:       name,
		PropertyRecordCount:      "10",
		PropertyFieldCount:       "2",
		PropertyReadProportion:   "0",
		PropertyUpdateProportion: "0",
		PropertyInsertProportion: "1",
		PropertyInsertOrder:      "ordered",
	}
	w, _ := newTestWorkload(t, props)
	db := newTestMemoryDB(t, name)
	loadRecords(t, w, db, 10)
	for i := 0; i < 5; i++ {
		require.True(t, w.DoTransaction(db, nil))
	}
	require.Equal(t, 15, db.Count(PropertyTableNameDefault))
	require.Equal(t, int64(14), w.transactionInsertKeySequence.Last())
	_, status := db.Read(PropertyTableNameDefault, "user14", nil)
	require.Equal(t, StatusOK, status)
}

func TestCoreWorkloadScanAndUpdate(t *testing.T) {
	name := t.Name()
	defer DropMemoryStore(name)
	props := Properties{
		ConfigMemoryDBName:          name,
		PropertyRecordCount:         "30",
		PropertyFieldCount:          "2",
		PropertyReadProportion:      "0",
		PropertyUpdateProportion:    "0.5",
		PropertyScanProportion:      "0.5",
		PropertyMaxScanLength:       "5",
		PropertyReadAllFields:       "false",
		PropertyWriteAllFields:      "true",
		PropertyRequestDistribution: "zipfian",
	}
	w, m := newTestWorkload(t, props)
	measured := NewMeasuredDB(newTestMemoryDB(t, name), m)
	loadRecords(t, w, measured, 30)
	for i := 0; i < 100; i++ {
		require.True(t, w.DoTransaction(measured, nil))
	}
	require.True(t, len(exportStatusLine(t, m, "UPDATE", StatusOK)) > 0)
	require.True(t, len(exportStatusLine(t, m, "SCAN", StatusOK)) > 0)
	require.Equal(t, "", exportStatusLine(t, m, "UPDATE", StatusNotFound))
}

func TestCoreWorkloadNoOperations(t *testing.T) {
	w, _ := newTestWorkload(t, Properties{
		PropertyReadProportion:   "0",
		PropertyUpdateProportion: "0",
	})
	require.False(t, w.DoTransaction(NewBasicDB(), nil))
}

func TestCoreWorkloadInsertFailure(t *testing.T) {
	w, _ := newTestWorkload(t, Properties{InsertionRetryLimit: "0"})
	require.False(t, w.DoInsert(&failingDB{BasicDB: NewBasicDB()}, nil))
}

type failingDB struct {
	*BasicDB
}

func (self *failingDB) Insert(table string, key string, values KVMap) StatusType {
	return StatusServiceUnavailable
}

func TestCoreWorkloadInvalidProperties(t *testing.T) {
	m := newTestMeasurements(t)
	for _, item := range []struct {
		props Properties
		err   error
	}{
		{Properties{PropertyRequestDistribution: "gaussian"}, ErrUnknownDistribution},
		{Properties{PropertyScanLengthDistribution: "hotspot"}, ErrUnknownDistribution},
		{Properties{PropertyFieldLengthDistribution: "latest"}, ErrUnknownDistribution},
		{Properties{PropertyDataIntegrity: "true", PropertyFieldLengthDistribution: "uniform"}, ErrInvalidProperty},
		{Properties{PropertyFieldCount: "0"}, ErrInvalidProperty},
		{Properties{PropertyRecordCount: "-1"}, ErrInvalidProperty},
		{Properties{PropertyInsertOrder: "random"}, ErrInvalidProperty},
		{Properties{HotspotOpnFraction: "most"}, ErrInvalidProperty},
	} {
		err := NewCoreWorkload(m).Init(item.props)
		require.True(t, errors.Is(err, item.err))
	}
	_, err := NewWorkload("ConstantOccupancyWorkload", m)
	require.True(t, errors.Is(err, ErrUnsupportedWorkload))
}
