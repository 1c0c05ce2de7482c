package hotbench

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrInvalidProperty     = errors.New("invalid property")
	ErrUnsupportedDB       = errors.New("unsupported database")
	ErrUnsupportedWorkload = errors.New("unsupported workload")
	ErrUnsupportedExporter = errors.New("unsupported measurement exporter")
	ErrUnknownDistribution = errors.New("unknown distribution")
)

type StatusType uint8

const (
	StatusOK StatusType = 1 + iota
	StatusError
	StatusNotFound
	StatusNotImplemented
	StatusUnexpectedState
	StatusBadRequest
	StatusForbidden
	StatusServiceUnavailable
)

func (self StatusType) String() string {
	switch self {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	case StatusUnexpectedState:
		return "UNEXPECTED_STATE"
	case StatusBadRequest:
		return "BAD_REQUEST"
	case StatusForbidden:
		return "FORBIDDEN"
	case StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "UNKNOWN_STATUS"
	}
}

// Binary represents arbitrary binary value(byte array).
type Binary []byte

// KVMap holds the fields of one record.
type KVMap map[string]Binary

// DB is a layer for accessing a database to be benchmarked.
// Each routine in the client will be given its own instance of
// whatever DB is to be used in the test. Any argument-based initialization
// should be done by Init().
//
// The semantics of methods such as Insert, Update and Delete vary from
// database to database. In particular, operations may or may not be durable
// once these methods commit, and some systems may return 'success'
// regardless of whether or not a tuple with a matching key existed before
// the call.
type DB interface {
	// Set the properties for this DB.
	SetProperties(p Properties)

	// Get the properties for this DB.
	GetProperties() Properties

	// Initialize any state for this DB.
	// Called once per DB instance; there is one DB instance per client routine.
	Init() error

	// Cleanup any state for this DB.
	// Called once per DB instance; there is one DB instance per client routine.
	Cleanup() error

	// Read a record from the database.
	// Each field/value pair from the result will be returned.
	Read(table string, key string, fields []string) (KVMap, StatusType)

	// Perform a range scan for a set of records in the database.
	// Each field/value pair from the result will be returned.
	Scan(table string, startKey string, recordCount int64, fields []string) ([]KVMap, StatusType)

	// Update a record in the database.
	// Any field/value pairs in the specified values will be written into
	// the record with the specified record key, overwriting any existing
	// values with the same field name.
	Update(table string, key string, values KVMap) StatusType

	// Insert a record in the database. Any field/value pairs in the specified
	// values will be written into the record with the specified record key.
	Insert(table string, key string, values KVMap) StatusType

	// Delete a record from the database.
	Delete(table string, key string) StatusType
}

type DBBase struct {
	p Properties
}

func NewDBBase() *DBBase {
	return &DBBase{}
}

func (self *DBBase) SetProperties(p Properties) {
	self.p = p
}

func (self *DBBase) GetProperties() Properties {
	return self.p
}

type MakeDBFunc func() DB

var (
	databasesLock sync.RWMutex
	databases     = map[string]MakeDBFunc{
		"basic": func() DB {
			return NewBasicDB()
		},
		"memory": func() DB {
			return NewMemoryDB()
		},
	}
)

// RegisterDB makes a database available under name.
func RegisterDB(name string, f MakeDBFunc) {
	databasesLock.Lock()
	defer databasesLock.Unlock()
	databases[name] = f
}

// DatabaseNames returns the registered database names in order.
func DatabaseNames() []string {
	databasesLock.RLock()
	defer databasesLock.RUnlock()
	ret := make([]string, 0, len(databases))
	for name := range databases {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

func NewDB(database string, props Properties) (DB, error) {
	databasesLock.RLock()
	f, ok := databases[database]
	databasesLock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDB, database)
	}
	db := f()
	db.SetProperties(props)
	return db, nil
}

// MeasuredDB wraps another DB and measures latencies and return codes of
// every operation.
type MeasuredDB struct {
	db                        DB
	measurements              Measurements
	reportLatencyForEachError bool
}

func NewMeasuredDB(db DB, measurements Measurements) *MeasuredDB {
	return &MeasuredDB{
		db:           db,
		measurements: measurements,
	}
}

func (self *MeasuredDB) SetProperties(p Properties) {
	self.db.SetProperties(p)
}

func (self *MeasuredDB) GetProperties() Properties {
	return self.db.GetProperties()
}

func (self *MeasuredDB) Init() error {
	p := self.db.GetProperties()
	if p == nil {
		p = NewProperties()
	}
	report, err := p.GetBool(PropertyReportLatencyForEachError, PropertyReportLatencyForEachErrorDefault)
	if err != nil {
		return err
	}
	self.reportLatencyForEachError = report
	return self.db.Init()
}

func (self *MeasuredDB) Cleanup() error {
	start := time.Now()
	err := self.db.Cleanup()
	self.measure("CLEANUP", StatusOK, start)
	return err
}

func (self *MeasuredDB) measure(operation string, status StatusType, start time.Time) {
	latency := time.Since(start).Microseconds()
	name := operation
	if status != StatusOK {
		if !self.reportLatencyForEachError {
			name = operation + "-FAILED"
		} else {
			name = operation + "-" + status.String()
		}
	}
	self.measurements.Measure(name, latency)
	self.measurements.ReportStatus(operation, status)
}

func (self *MeasuredDB) Read(table string, key string, fields []string) (KVMap, StatusType) {
	start := time.Now()
	ret, status := self.db.Read(table, key, fields)
	self.measure("READ", status, start)
	return ret, status
}

func (self *MeasuredDB) Scan(table string, startKey string, recordCount int64, fields []string) ([]KVMap, StatusType) {
	start := time.Now()
	ret, status := self.db.Scan(table, startKey, recordCount, fields)
	self.measure("SCAN", status, start)
	return ret, status
}

func (self *MeasuredDB) Update(table string, key string, values KVMap) StatusType {
	start := time.Now()
	status := self.db.Update(table, key, values)
	self.measure("UPDATE", status, start)
	return status
}

func (self *MeasuredDB) Insert(table string, key string, values KVMap) StatusType {
	start := time.Now()
	status := self.db.Insert(table, key, values)
	self.measure("INSERT", status, start)
	return status
}

func (self *MeasuredDB) Delete(table string, key string) StatusType {
	start := time.Now()
	status := self.db.Delete(table, key)
	self.measure("DELETE", status, start)
	return status
}
