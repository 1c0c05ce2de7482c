package hotbench

import (
	"bytes"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	g "github.com/hhkbp2/hotbench/generator"
)

type MakeWorkloadFunc func(m Measurements) Workload

var (
	Workloads = map[string]MakeWorkloadFunc{
		"CoreWorkload": func(m Measurements) Workload {
			return NewCoreWorkload(m)
		},
	}
)

func NewWorkload(className string, m Measurements) (Workload, error) {
	f, ok := Workloads[className]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedWorkload, className)
	}
	return f(m), nil
}

// Workload represents One experiment scenario.
// One object of this type will be instantiated and
// shared among all client routines.
// Any argument-based initialization should be done by Init().
type Workload interface {
	// Initialize the scenario. Create any generators and other shared
	// objects here.
	// Called once in the main client routine, before any operations
	// are started.
	Init(p Properties) error

	// Initialize any state for a particular client routine.
	// The returned object is passed to invocations of DoInsert()
	// and DoTransaction() for this routine only.
	InitRoutine(p Properties) (interface{}, error)

	// Cleanup the scenario.
	// Called once, in the main client routine, after all operations
	// have completed.
	Cleanup() error

	// Do one insert operation. It is called concurrently from multiple
	// routines. Returns false if the routine should stop.
	DoInsert(db DB, object interface{}) bool

	// Do one transaction operation. It is called concurrently from multiple
	// routines. Returns false if the routine should stop.
	DoTransaction(db DB, object interface{}) bool
}

const (
	OperationRead            = "READ"
	OperationUpdate          = "UPDATE"
	OperationInsert          = "INSERT"
	OperationScan            = "SCAN"
	OperationReadModifyWrite = "READMODIFYWRITE"
)

// CoreWorkload represents the core benchmark scenario.
// It's a set of clients doing simple CRUD operations. The relative proportion
// of different kinds of operations, and other properties of the workload,
// are controlled by parameters specified at runtime.
// Properties to control the client:
//
//	fieldcount: the number of fields in a record (default: 10)
//	fieldlength: the size of each field (default: 100)
//	readallfields: should reads read all fields (true) or just one (false)
//	               (default: true)
//	writeallfields: should updates and read/modify/writes update all fields
//	                (true) or just one (false) (default: false)
//	readproportion: what proportion of operations should be reads
//	                (default: 0.95)
//	updateproportion: what proportion of operations should be updates
//	                  (default: 0.05)
//	insertproportion: what proportion of operations should be inserts
//	                  (default: 0)
//	scanproportion: what proportion of operations should be scans (default: 0)
//	readmodifywriteproportion: what proportion of operations should read a
//	                           record, modify it, write it back (default: 0)
//	requestdistribution: what distribution should be used to select the
//	                     records to operate on - uniform, zipfian, hotspot,
//	                     latest or exponential (default: hotspot)
//	hotspotdatafraction: the fraction of records in the hot set (default: 0.2)
//	hotspotopnfraction: the fraction of operations on the hot set
//	                    (default: 0.8)
//	maxscanlength: for scans, what is the maximum number of records to scan
//	               (default: 1000)
//	scanlengthdistribution: for scans, what distribution should be used to
//	                        choose the number of records to scan, for
//	                        each scan, between 1 and maxscanlength
//	                        (default: uniform)
//	insertorder: should records be inserted in order by key ("ordered"), or in
//	             hashed order ("hashed") (default: hashed)
type CoreWorkload struct {
	table                        string
	fieldCount                   int64
	fieldNames                   []string
	fieldLengthGenerator         g.IntegerGenerator
	readAllFields                bool
	writeAllFields               bool
	dataIntegrity                bool
	keySequence                  g.IntegerGenerator
	operationChooser             *g.DiscreteGenerator
	keyChooser                   g.IntegerGenerator
	exponential                  bool
	fieldChooser                 g.IntegerGenerator
	transactionInsertKeySequence *g.AcknowledgedCounterGenerator
	scanLengthChooser            g.IntegerGenerator
	orderedInserts               bool
	recordCount                  int64
	insertionRetryLimit          int64
	insertionRetryInterval       int64
	measurements                 Measurements
}

func NewCoreWorkload(m Measurements) *CoreWorkload {
	return &CoreWorkload{
		measurements: m,
	}
}

type proportions struct {
	read, update, insert, scan, readModifyWrite float64
}

func getProportions(p Properties) (*proportions, error) {
	ret := &proportions{}
	for _, item := range []struct {
		key, defaultValue string
		value             *float64
	}{
		{PropertyReadProportion, PropertyReadProportionDefault, &ret.read},
		{PropertyUpdateProportion, PropertyUpdateProportionDefault, &ret.update},
		{PropertyInsertProportion, PropertyInsertProportionDefault, &ret.insert},
		{PropertyScanProportion, PropertyScanProportionDefault, &ret.scan},
		{PropertyReadModifyWriteProportion, PropertyReadModifyWriteProportionDefault, &ret.readModifyWrite},
	} {
		v, err := p.GetFloat64(item.key, item.defaultValue)
		if err != nil {
			return nil, err
		}
		*item.value = v
	}
	return ret, nil
}

func (self *CoreWorkload) Init(p Properties) error {
	fieldCount, err := p.GetInt64(PropertyFieldCount, PropertyFieldCountDefault)
	if err != nil {
		return err
	}
	if fieldCount <= 0 {
		return fmt.Errorf("%w %s: must be positive", ErrInvalidProperty, PropertyFieldCount)
	}
	fieldNames := make([]string, 0, fieldCount)
	for i := int64(0); i < fieldCount; i++ {
		fieldNames = append(fieldNames, "field"+strconv.FormatInt(i, 10))
	}
	fieldLengthGenerator, err := getFieldLengthGenerator(p)
	if err != nil {
		return err
	}
	props, err := getProportions(p)
	if err != nil {
		return err
	}
	recordCount, err := p.GetInt64(PropertyRecordCount, PropertyRecordCountDefault)
	if err != nil {
		return err
	}
	if recordCount < 0 {
		return fmt.Errorf("%w %s: must not be negative", ErrInvalidProperty, PropertyRecordCount)
	}
	if recordCount == 0 {
		recordCount = math.MaxInt32
	}
	maxScanLength, err := p.GetInt64(PropertyMaxScanLength, PropertyMaxScanLengthDefault)
	if err != nil {
		return err
	}
	if maxScanLength <= 0 {
		return fmt.Errorf("%w %s: must be positive", ErrInvalidProperty, PropertyMaxScanLength)
	}
	insertStart, err := p.GetInt64(PropertyInsertStart, PropertyInsertStartDefault)
	if err != nil {
		return err
	}
	readAllFields, err := p.GetBool(PropertyReadAllFields, PropertyReadAllFieldsDefault)
	if err != nil {
		return err
	}
	writeAllFields, err := p.GetBool(PropertyWriteAllFields, PropertyWriteAllFieldsDefault)
	if err != nil {
		return err
	}
	dataIntegrity, err := p.GetBool(PropertyDataIntegrity, PropertyDataIntegrityDefault)
	if err != nil {
		return err
	}
	lengthDistrib := p.GetDefault(PropertyFieldLengthDistribution, PropertyFieldLengthDistributionDefault)
	if dataIntegrity && lengthDistrib != "constant" {
		return fmt.Errorf("%w %s: must have constant field size to check data integrity",
			ErrInvalidProperty, PropertyFieldLengthDistribution)
	}
	var orderedInserts bool
	switch insertOrder := p.GetDefault(PropertyInsertOrder, PropertyInsertOrderDefault); insertOrder {
	case "hashed":
		orderedInserts = false
	case "ordered":
		orderedInserts = true
	default:
		return fmt.Errorf("%w %s: unknown insert order %q", ErrInvalidProperty, PropertyInsertOrder, insertOrder)
	}

	operationChooser := g.NewDiscreteGenerator()
	operationChooser.AddValue(props.read, OperationRead)
	operationChooser.AddValue(props.update, OperationUpdate)
	operationChooser.AddValue(props.insert, OperationInsert)
	operationChooser.AddValue(props.scan, OperationScan)
	operationChooser.AddValue(props.readModifyWrite, OperationReadModifyWrite)

	transactionInsertKeySequence := g.NewAcknowledgedCounterGenerator(recordCount)
	requestDistrib := p.GetDefault(PropertyRequestDistribution, PropertyRequestDistributionDefault)
	keyChooser, err := newKeyChooser(p, requestDistrib, recordCount, props.insert, transactionInsertKeySequence)
	if err != nil {
		return err
	}

	var scanLengthChooser g.IntegerGenerator
	switch scanLengthDistrib := p.GetDefault(PropertyScanLengthDistribution, PropertyScanLengthDistributionDefault); scanLengthDistrib {
	case "uniform":
		scanLengthChooser = g.NewUniformGenerator(1, maxScanLength)
	case "zipfian":
		scanLengthChooser = g.NewZipfianGeneratorByInterval(1, maxScanLength)
	default:
		return fmt.Errorf("%w: %s not allowed for scan length", ErrUnknownDistribution, scanLengthDistrib)
	}

	insertionRetryLimit, err := p.GetInt64(InsertionRetryLimit, InsertionRetryLimitDefault)
	if err != nil {
		return err
	}
	insertionRetryInterval, err := p.GetInt64(InsertionRetryInterval, InsertionRetryIntervalDefault)
	if err != nil {
		return err
	}

	self.table = p.GetDefault(PropertyTableName, PropertyTableNameDefault)
	self.fieldCount = fieldCount
	self.fieldNames = fieldNames
	self.fieldLengthGenerator = fieldLengthGenerator
	self.readAllFields = readAllFields
	self.writeAllFields = writeAllFields
	self.dataIntegrity = dataIntegrity
	self.keySequence = g.NewCounterGenerator(insertStart)
	self.operationChooser = operationChooser
	self.keyChooser = keyChooser
	_, self.exponential = keyChooser.(*g.ExponentialGenerator)
	self.fieldChooser = g.NewUniformGenerator(0, fieldCount-1)
	self.transactionInsertKeySequence = transactionInsertKeySequence
	self.scanLengthChooser = scanLengthChooser
	self.orderedInserts = orderedInserts
	self.recordCount = recordCount
	self.insertionRetryLimit = insertionRetryLimit
	self.insertionRetryInterval = insertionRetryInterval
	Debugf("core workload: table=%s records=%d distribution=%s ordered=%t",
		self.table, recordCount, requestDistrib, orderedInserts)
	return nil
}

func newKeyChooser(
	p Properties,
	distribution string,
	recordCount int64,
	insertProportion float64,
	insertKeySequence *g.AcknowledgedCounterGenerator) (g.IntegerGenerator, error) {

	switch distribution {
	case "uniform":
		return g.NewUniformGenerator(0, recordCount-1), nil
	case "zipfian":
		// The keyspace is sized for the records expected to exist at the end
		// of the run so that inserts do not shift which keys are popular.
		// Keys not inserted yet are skipped by nextKeyNumber.
		opCount, err := p.GetInt64(PropertyOperationCount, PropertyOperationCountDefault)
		if err != nil {
			return nil, err
		}
		// 2.0 is fudge factor
		expectedNewKeys := int64(float64(opCount) * insertProportion * 2.0)
		return g.NewScrambledZipfianGeneratorByItems(recordCount + expectedNewKeys), nil
	case "latest":
		return g.NewSkewedLatestGenerator(insertKeySequence), nil
	case "hotspot":
		hotsetFraction, err := p.GetFloat64(HotspotDataFraction, HotspotDataFractionDefault)
		if err != nil {
			return nil, err
		}
		hotOpnFraction, err := p.GetFloat64(HotspotOpnFraction, HotspotOpnFractionDefault)
		if err != nil {
			return nil, err
		}
		return g.NewHotspotGenerator(0, recordCount-1, hotsetFraction, hotOpnFraction), nil
	case "exponential":
		percentile, err := p.GetFloat64(PropertyExponentialPercentile, PropertyExponentialPercentileDefault)
		if err != nil {
			return nil, err
		}
		fraction, err := p.GetFloat64(PropertyExponentialFraction, PropertyExponentialFractionDefault)
		if err != nil {
			return nil, err
		}
		return g.NewExponentialGenerator(percentile, float64(recordCount)*fraction), nil
	default:
		return nil, fmt.Errorf("%w: request distribution %s", ErrUnknownDistribution, distribution)
	}
}

func getFieldLengthGenerator(p Properties) (g.IntegerGenerator, error) {
	fieldLength, err := p.GetInt64(PropertyFieldLength, PropertyFieldLengthDefault)
	if err != nil {
		return nil, err
	}
	if fieldLength <= 0 {
		return nil, fmt.Errorf("%w %s: must be positive", ErrInvalidProperty, PropertyFieldLength)
	}
	switch distribution := p.GetDefault(PropertyFieldLengthDistribution, PropertyFieldLengthDistributionDefault); distribution {
	case "constant":
		return g.NewConstantGenerator(fieldLength), nil
	case "uniform":
		return g.NewUniformGenerator(1, fieldLength), nil
	case "zipfian":
		return g.NewZipfianGeneratorByInterval(1, fieldLength), nil
	default:
		return nil, fmt.Errorf("%w: field length distribution %s", ErrUnknownDistribution, distribution)
	}
}

func (self *CoreWorkload) InitRoutine(p Properties) (interface{}, error) {
	// nothing to do
	return nil, nil
}

func (self *CoreWorkload) Cleanup() error {
	// nothing to do
	return nil
}

// KeyName returns the database key of the given key number.
func (self *CoreWorkload) KeyName(keyNumber int64) string {
	if !self.orderedInserts {
		return "user" + strconv.FormatUint(g.Hash(keyNumber), 10)
	}
	return "user" + strconv.FormatInt(keyNumber, 10)
}

func (self *CoreWorkload) randomFieldName() string {
	return self.fieldNames[self.fieldChooser.Next()]
}

func (self *CoreWorkload) buildSingleValue(key string) KVMap {
	fieldKey := self.randomFieldName()
	var data Binary
	if self.dataIntegrity {
		data = self.buildDeterministicValue(key, fieldKey)
	} else {
		// fill with random data
		data = RandomBytes(self.fieldLengthGenerator.Next())
	}
	return KVMap{
		fieldKey: data,
	}
}

func (self *CoreWorkload) buildValues(key string) KVMap {
	ret := make(KVMap, len(self.fieldNames))
	for _, fieldKey := range self.fieldNames {
		if self.dataIntegrity {
			ret[fieldKey] = self.buildDeterministicValue(key, fieldKey)
		} else {
			// fill with random data
			ret[fieldKey] = RandomBytes(self.fieldLengthGenerator.Next())
		}
	}
	return ret
}

func javaStringHashcode(b []byte) int32 {
	hash := int32(0)
	for _, c := range b {
		hash = 31*hash + int32(c)
	}
	return hash
}

func (self *CoreWorkload) buildDeterministicValue(key string, fieldKey string) []byte {
	size := self.fieldLengthGenerator.Next()
	buf := bytes.NewBuffer(make([]byte, 0, size))
	buf.WriteString(key)
	buf.WriteString(":")
	buf.WriteString(fieldKey)
	for int64(buf.Len()) < size {
		buf.WriteString(":")
		buf.WriteString(strconv.FormatInt(int64(javaStringHashcode(buf.Bytes())), 10))
	}
	buf.Truncate(int(size))
	return buf.Bytes()
}

// Do one insert operation of the load phase.
func (self *CoreWorkload) DoInsert(db DB, object interface{}) bool {
	keyNumber := self.keySequence.Next()
	dbKey := self.KeyName(keyNumber)
	values := self.buildValues(dbKey)

	var status StatusType
	numberOfRetries := int64(0)
	for {
		status = db.Insert(self.table, dbKey, values)
		if status == StatusOK {
			break
		}
		// Retry if configured. Without retrying, the load process will fail
		// even if one single insertion fails.
		numberOfRetries++
		if numberOfRetries > self.insertionRetryLimit {
			Errorf("error inserting %s, not retrying any more. number of attempts: %d",
				dbKey, numberOfRetries)
			break
		}
		Warnf("retrying insertion of %s, retry count: %d", dbKey, numberOfRetries)
		// sleep for a random number between
		// [0.8, 1.2) * InsertionRetryInterval
		sleep := float64(self.insertionRetryInterval) * (0.8 + 0.4*rand.Float64())
		time.Sleep(time.Duration(sleep * float64(time.Second)))
	}
	return status == StatusOK
}

// Do one transaction operation of the run phase.
func (self *CoreWorkload) DoTransaction(db DB, object interface{}) bool {
	switch self.operationChooser.Next() {
	case OperationRead:
		self.DoTransactionRead(db)
	case OperationUpdate:
		self.DoTransactionUpdate(db)
	case OperationInsert:
		self.DoTransactionInsert(db)
	case OperationScan:
		self.DoTransactionScan(db)
	case OperationReadModifyWrite:
		self.DoTransactionReadModifyWrite(db)
	default:
		return false
	}
	return true
}

// nextKeyNumber draws a key number no larger than the latest acknowledged
// insert, re-drawing any key that may not exist yet.
func (self *CoreWorkload) nextKeyNumber() int64 {
	var ret int64
	if self.exponential {
		for {
			ret = self.transactionInsertKeySequence.Last() - self.keyChooser.Next()
			if ret >= 0 {
				return ret
			}
		}
	}
	for {
		ret = self.keyChooser.Next()
		if ret <= self.transactionInsertKeySequence.Last() {
			return ret
		}
	}
}

// Verify the dataset returned from transaction.
// Results are reported under the label "VERIFY": OK means the expected data
// was returned, UNEXPECTED_STATE means incorrect data and ERROR means no data.
func (self *CoreWorkload) verifyRow(key string, cells KVMap) {
	status := StatusOK
	start := time.Now()
	if len(cells) == 0 {
		// This assumes that empty dataset is never valid
		status = StatusError
	} else {
		for k, v := range cells {
			if !bytes.Equal(v, self.buildDeterministicValue(key, k)) {
				status = StatusUnexpectedState
				break
			}
		}
	}
	self.measurements.Measure("VERIFY", time.Since(start).Microseconds())
	self.measurements.ReportStatus("VERIFY", status)
}

func (self *CoreWorkload) readFields() []string {
	if !self.readAllFields {
		// read a random field
		return []string{self.randomFieldName()}
	} else if self.dataIntegrity {
		// pass the full field list if dataIntegrity is on for verification
		return self.fieldNames
	}
	return nil
}

func (self *CoreWorkload) writeValues(key string) KVMap {
	if self.writeAllFields {
		// new data for all the fields
		return self.buildValues(key)
	}
	// update a random field
	return self.buildSingleValue(key)
}

func (self *CoreWorkload) DoTransactionRead(db DB) {
	keyName := self.KeyName(self.nextKeyNumber())
	ret, _ := db.Read(self.table, keyName, self.readFields())
	if self.dataIntegrity {
		self.verifyRow(keyName, ret)
	}
}

func (self *CoreWorkload) DoTransactionReadModifyWrite(db DB) {
	keyName := self.KeyName(self.nextKeyNumber())
	fields := self.readFields()
	values := self.writeValues(keyName)

	start := time.Now()
	ret, _ := db.Read(self.table, keyName, fields)
	db.Update(self.table, keyName, values)
	latency := time.Since(start).Microseconds()
	if self.dataIntegrity {
		self.verifyRow(keyName, ret)
	}
	self.measurements.Measure("READ-MODIFY-WRITE", latency)
}

func (self *CoreWorkload) DoTransactionScan(db DB) {
	startKeyName := self.KeyName(self.nextKeyNumber())
	length := self.scanLengthChooser.Next()
	var fields []string
	if !self.readAllFields {
		fields = []string{self.randomFieldName()}
	}
	db.Scan(self.table, startKeyName, length, fields)
}

func (self *CoreWorkload) DoTransactionUpdate(db DB) {
	keyName := self.KeyName(self.nextKeyNumber())
	db.Update(self.table, keyName, self.writeValues(keyName))
}

func (self *CoreWorkload) DoTransactionInsert(db DB) {
	keyNumber := self.transactionInsertKeySequence.Next()
	keyName := self.KeyName(keyNumber)
	db.Insert(self.table, keyName, self.buildValues(keyName))
	if err := self.transactionInsertKeySequence.Acknowledge(keyNumber); err != nil {
		Warnf("acknowledge insert %d: %s", keyNumber, err)
	}
}
