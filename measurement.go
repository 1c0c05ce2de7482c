package hotbench

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"
)

type MeasurementType uint8

const (
	MeasurementHistogram MeasurementType = 1 + iota
	MeasurementHDRHistogram
	MeasurementHDRHistogramAndHistogram
)

var (
	measurementTypes = map[string]MeasurementType{
		"histogram":              MeasurementHistogram,
		"hdrhistogram":           MeasurementHDRHistogram,
		"hdrhistogram+histogram": MeasurementHDRHistogramAndHistogram,
	}
)

// Used to export the collected measurements into a useful format, for example
// human readable text or machine readable JSON.
type MeasurementExporter interface {
	// Write a measurement to the exported format. v should be int64 or float64
	Write(metric string, measurement string, v interface{}) error
	// Close flushes the exported data. The underlying writer is left open.
	io.Closer
}

type MakeMeasurementExporterFunc func(w io.Writer) MeasurementExporter

var (
	MeasurementExporters = map[string]MakeMeasurementExporterFunc{
		"TextMeasurementExporter": func(w io.Writer) MeasurementExporter {
			return NewTextMeasurementExporter(w)
		},
		"JSONMeasurementExporter": func(w io.Writer) MeasurementExporter {
			return NewJSONMeasurementExporter(w)
		},
		"JSONArrayMeasurementExporter": func(w io.Writer) MeasurementExporter {
			return NewJSONArrayMeasurementExporter(w)
		},
	}
)

func NewMeasurementExporter(className string, w io.Writer) (MeasurementExporter, error) {
	f, ok := MeasurementExporters[className]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExporter, className)
	}
	return f(w), nil
}

// A single measured metric (such as READ LATENCY)
type OneMeasurement interface {
	Measure(latency int64)
	GetName() string
	// One line summary of the window since the last call.
	GetSummary() string
	// Report a return code.
	ReportStatus(status StatusType)
	// Exports the current measurements to a suitable format.
	ExportMeasurements(exporter MeasurementExporter) error
}

type OneMeasurementBase struct {
	name        string
	lock        sync.Mutex
	returnCodes map[StatusType]int64
}

func NewOneMeasurementBase(name string) *OneMeasurementBase {
	return &OneMeasurementBase{
		name:        name,
		returnCodes: make(map[StatusType]int64),
	}
}

func (self *OneMeasurementBase) GetName() string {
	return self.name
}

func (self *OneMeasurementBase) ReportStatus(status StatusType) {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.returnCodes[status]++
}

func (self *OneMeasurementBase) ExportStatusCounts(exporter MeasurementExporter) error {
	self.lock.Lock()
	statuses := make([]StatusType, 0, len(self.returnCodes))
	for status := range self.returnCodes {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	counts := make([]int64, len(statuses))
	for i, status := range statuses {
		counts[i] = self.returnCodes[status]
	}
	self.lock.Unlock()

	for i, status := range statuses {
		if err := exporter.Write(self.name, "Return="+status.String(), counts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Collects latency measurements, and reports them when requested.
type Measurements interface {
	// Report a single value of a single metric. E.g. for read latency,
	// operation="READ" and latency is the measured value in microseconds.
	Measure(operation string, latency int64)

	// Return a one line summary of the measurements.
	GetSummary() string

	// Report a return code for a single DB operation.
	ReportStatus(operation string, status StatusType)

	// Export the current measurements to a suitable format.
	ExportMeasurements(exporter MeasurementExporter) error
}

type measurementConfig struct {
	measurementType MeasurementType
	buckets         int64
	percentiles     []float64
	hdrMax          int64
	hdrSig          int
}

func parseMeasurementConfig(props Properties) (*measurementConfig, error) {
	name := props.GetDefault(PropertyMeasurementType, PropertyMeasurementTypeDefault)
	t, ok := measurementTypes[name]
	if !ok {
		return nil, fmt.Errorf("%w %s: unknown measurement type %q",
			ErrInvalidProperty, PropertyMeasurementType, name)
	}
	buckets, err := props.GetInt64(Buckets, BucketsDefault)
	if err != nil {
		return nil, err
	}
	if buckets <= 0 {
		return nil, fmt.Errorf("%w %s: must be positive", ErrInvalidProperty, Buckets)
	}
	percentiles, err := parsePercentileValues(props.GetDefault(PropertyPercentiles, PropertyPercentilesDefault))
	if err != nil {
		return nil, err
	}
	hdrMax, err := props.GetInt64(PropertyHdrHistogramMax, PropertyHdrHistogramMaxDefault)
	if err != nil {
		return nil, err
	}
	if hdrMax < 2 {
		return nil, fmt.Errorf("%w %s: must be at least 2", ErrInvalidProperty, PropertyHdrHistogramMax)
	}
	sig, err := props.GetInt64(PropertyHdrHistogramSig, PropertyHdrHistogramSigDefault)
	if err != nil {
		return nil, err
	}
	if sig < 1 || sig > 5 {
		return nil, fmt.Errorf("%w %s: must be within [1, 5]", ErrInvalidProperty, PropertyHdrHistogramSig)
	}
	return &measurementConfig{
		measurementType: t,
		buckets:         buckets,
		percentiles:     percentiles,
		hdrMax:          hdrMax,
		hdrSig:          int(sig),
	}, nil
}

// Helper function to parse the given percentile value string.
func parsePercentileValues(prop string) ([]float64, error) {
	parts := strings.Split(prop, ",")
	ret := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v <= 0 || v > 100 {
			return nil, fmt.Errorf("%w %s: bad percentile %q",
				ErrInvalidProperty, PropertyPercentiles, p)
		}
		ret = append(ret, v)
	}
	return ret, nil
}

type DefaultMeasurements struct {
	config             *measurementConfig
	opToMeasurementMap map[string]OneMeasurement
	lock               sync.RWMutex
}

func NewDefaultMeasurements(props Properties) (*DefaultMeasurements, error) {
	config, err := parseMeasurementConfig(props)
	if err != nil {
		return nil, err
	}
	return &DefaultMeasurements{
		config:             config,
		opToMeasurementMap: make(map[string]OneMeasurement),
	}, nil
}

func (self *DefaultMeasurements) constructOneMeasurement(name string) OneMeasurement {
	switch self.config.measurementType {
	case MeasurementHistogram:
		return NewOneMeasurementHistogram(name, self.config.buckets)
	case MeasurementHDRHistogramAndHistogram:
		return NewTwoInOneMeasurement(name,
			NewOneMeasurementHdrHistogram("Hdr"+name, self.config),
			NewOneMeasurementHistogram("Bucket"+name, self.config.buckets))
	default:
		return NewOneMeasurementHdrHistogram(name, self.config)
	}
}

func (self *DefaultMeasurements) Measure(operation string, latency int64) {
	self.getOpMeasurement(operation).Measure(latency)
}

func (self *DefaultMeasurements) ReportStatus(operation string, status StatusType) {
	self.getOpMeasurement(operation).ReportStatus(status)
}

// sorted returns the per operation measurements ordered by operation name.
func (self *DefaultMeasurements) sorted() []OneMeasurement {
	self.lock.RLock()
	defer self.lock.RUnlock()
	names := make([]string, 0, len(self.opToMeasurementMap))
	for name := range self.opToMeasurementMap {
		names = append(names, name)
	}
	sort.Strings(names)
	ret := make([]OneMeasurement, 0, len(names))
	for _, name := range names {
		ret = append(ret, self.opToMeasurementMap[name])
	}
	return ret
}

func (self *DefaultMeasurements) GetSummary() string {
	parts := make([]string, 0)
	for _, m := range self.sorted() {
		if s := m.GetSummary(); len(s) > 0 {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (self *DefaultMeasurements) ExportMeasurements(exporter MeasurementExporter) error {
	for _, m := range self.sorted() {
		if err := m.ExportMeasurements(exporter); err != nil {
			return err
		}
	}
	return nil
}

func (self *DefaultMeasurements) getOpMeasurement(operation string) OneMeasurement {
	self.lock.RLock()
	m, ok := self.opToMeasurementMap[operation]
	self.lock.RUnlock()
	if ok {
		return m
	}
	self.lock.Lock()
	defer self.lock.Unlock()
	if m, ok = self.opToMeasurementMap[operation]; !ok {
		m = self.constructOneMeasurement(operation)
		self.opToMeasurementMap[operation] = m
	}
	return m
}

// Write human readable text.
type TextMeasurementExporter struct {
	buf *bufio.Writer
}

func NewTextMeasurementExporter(w io.Writer) *TextMeasurementExporter {
	return &TextMeasurementExporter{
		buf: bufio.NewWriter(w),
	}
}

func (self *TextMeasurementExporter) Write(metric string, measurement string, v interface{}) error {
	_, err := fmt.Fprintf(self.buf, "[%s], %s, %v\n", metric, measurement, v)
	return err
}

func (self *TextMeasurementExporter) Close() error {
	return self.buf.Flush()
}

type innerJSONMeasurement struct {
	Metric      string      `json:"metric"`
	Measurement string      `json:"measurement"`
	Value       interface{} `json:"value"`
}

// Export measurements into a machine readable JSON file, one object per line.
type JSONMeasurementExporter struct {
	buf *bufio.Writer
	enc *json.Encoder
}

func NewJSONMeasurementExporter(w io.Writer) *JSONMeasurementExporter {
	buf := bufio.NewWriter(w)
	return &JSONMeasurementExporter{
		buf: buf,
		enc: json.NewEncoder(buf),
	}
}

func (self *JSONMeasurementExporter) Write(metric string, measurement string, v interface{}) error {
	return self.enc.Encode(&innerJSONMeasurement{
		Metric:      metric,
		Measurement: measurement,
		Value:       jsonValue(v),
	})
}

func (self *JSONMeasurementExporter) Close() error {
	return self.buf.Flush()
}

// Export measurements into a machine readable JSON Array of measurement objects.
type JSONArrayMeasurementExporter struct {
	buf        *bufio.Writer
	afterFirst bool
}

func NewJSONArrayMeasurementExporter(w io.Writer) *JSONArrayMeasurementExporter {
	return &JSONArrayMeasurementExporter{
		buf: bufio.NewWriter(w),
	}
}

func (self *JSONArrayMeasurementExporter) Write(metric string, measurement string, v interface{}) error {
	b, err := json.Marshal(&innerJSONMeasurement{
		Metric:      metric,
		Measurement: measurement,
		Value:       jsonValue(v),
	})
	if err != nil {
		return err
	}
	sep := "["
	if self.afterFirst {
		sep = ","
	}
	self.afterFirst = true
	if _, err = self.buf.WriteString(sep); err != nil {
		return err
	}
	_, err = self.buf.Write(b)
	return err
}

func (self *JSONArrayMeasurementExporter) Close() error {
	end := "]\n"
	if !self.afterFirst {
		end = "[]\n"
	}
	if _, err := self.buf.WriteString(end); err != nil {
		return err
	}
	return self.buf.Flush()
}

// jsonValue replaces the float values JSON can not represent.
func jsonValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

type namedValue struct {
	measurement string
	v           interface{}
}

// Take measurements and maintain a histogram of a given metric, such as
// READ LATENCY.
type OneMeasurementHistogram struct {
	*OneMeasurementBase
	// Specify the range of latencies to track in the histogram.
	buckets int64
	// Groups operations in discrete blocks of 1ms width.
	histogram []int64
	// Counts all operations outside the histogram's range.
	histogramOverflow int64
	// The total number of reported operations.
	operations int64
	// The sum of each latency measurement over all operations, in us.
	totalLatency int64
	// The sum of each latency measurement squared over all operations.
	// Used to calculate variance of latency.
	totalSquaredLatency float64
	// Keep a windowed version of these stats for printing status
	windowOperations   int64
	windowTotalLatency int64
	min                int64
	max                int64
}

func NewOneMeasurementHistogram(name string, buckets int64) *OneMeasurementHistogram {
	return &OneMeasurementHistogram{
		OneMeasurementBase: NewOneMeasurementBase(name),
		buckets:            buckets,
		histogram:          make([]int64, buckets),
		min:                -1,
		max:                -1,
	}
}

func (self *OneMeasurementHistogram) Measure(latency int64) {
	if latency < 0 {
		latency = 0
	}
	self.lock.Lock()
	defer self.lock.Unlock()

	// latency reported in us and collected in buckets by ms.
	bucket := latency / 1000
	if bucket >= self.buckets {
		self.histogramOverflow++
	} else {
		self.histogram[bucket]++
	}
	self.operations++
	self.totalLatency += latency
	self.totalSquaredLatency += float64(latency) * float64(latency)
	self.windowOperations++
	self.windowTotalLatency += latency

	if (self.min < 0) || (latency < self.min) {
		self.min = latency
	}
	if latency > self.max {
		self.max = latency
	}
}

func (self *OneMeasurementHistogram) GetSummary() string {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.windowOperations == 0 {
		return ""
	}
	report := float64(self.windowTotalLatency) / float64(self.windowOperations)
	self.windowOperations = 0
	self.windowTotalLatency = 0
	return fmt.Sprintf("[%s AverageLatency(us)=%.2f]", self.name, report)
}

func (self *OneMeasurementHistogram) ExportMeasurements(exporter MeasurementExporter) error {
	self.lock.Lock()
	operations := self.operations
	histogram := append([]int64(nil), self.histogram...)
	overflow := self.histogramOverflow
	var mean, variance float64
	if operations > 0 {
		mean = float64(self.totalLatency) / float64(operations)
		variance = self.totalSquaredLatency/float64(operations) - mean*mean
	}
	min, max := self.min, self.max
	self.lock.Unlock()

	name := self.name
	writes := []namedValue{
		{"Operations", operations},
		{"AverageLatency(us)", mean},
		{"LatencyVariance(us)", variance},
		{"MinLatency(us)", min},
		{"MaxLatency(us)", max},
	}
	if operations > 0 {
		opCounter := int64(0)
		done95th := false
		for i := int64(0); i < self.buckets; i++ {
			opCounter += histogram[i]
			percentage := float64(opCounter) / float64(operations)
			if !done95th && percentage >= 0.95 {
				writes = append(writes, namedValue{"95thPercentileLatency(us)", i * 1000})
				done95th = true
			}
			if percentage >= 0.99 {
				writes = append(writes, namedValue{"99thPercentileLatency(us)", i * 1000})
				break
			}
		}
	}
	for _, w := range writes {
		if err := exporter.Write(name, w.measurement, w.v); err != nil {
			return err
		}
	}
	if err := self.ExportStatusCounts(exporter); err != nil {
		return err
	}
	for i := int64(0); i < self.buckets; i++ {
		if histogram[i] == 0 {
			continue
		}
		if err := exporter.Write(name, strconv.FormatInt(i, 10), histogram[i]); err != nil {
			return err
		}
	}
	return exporter.Write(name, fmt.Sprintf(">%d", self.buckets), overflow)
}

// Take measurements and maintain a HdrHistogram of a given metric, such as READ LATENCY.
type OneMeasurementHdrHistogram struct {
	*OneMeasurementBase
	histogram   *hdrhistogram.Histogram
	window      *hdrhistogram.Histogram
	highest     int64
	percentiles []float64
}

func NewOneMeasurementHdrHistogram(name string, config *measurementConfig) *OneMeasurementHdrHistogram {
	return &OneMeasurementHdrHistogram{
		OneMeasurementBase: NewOneMeasurementBase(name),
		histogram:          hdrhistogram.New(1, config.hdrMax, config.hdrSig),
		window:             hdrhistogram.New(1, config.hdrMax, config.hdrSig),
		highest:            config.hdrMax,
		percentiles:        config.percentiles,
	}
}

// Latency is reported in microseconds. Values beyond the trackable range are
// recorded as the highest trackable value.
func (self *OneMeasurementHdrHistogram) Measure(latency int64) {
	if latency < 0 {
		latency = 0
	} else if latency > self.highest {
		latency = self.highest
	}
	self.lock.Lock()
	defer self.lock.Unlock()
	self.histogram.RecordValue(latency)
	self.window.RecordValue(latency)
}

// This is called periodically from the status goroutine and covers the
// values measured since the previous call.
func (self *OneMeasurementHdrHistogram) GetSummary() string {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.window.TotalCount() == 0 {
		return ""
	}
	ret := fmt.Sprintf("[%s: Count=%d, Max=%d, Min=%d, Avg=%.2f, 90=%d, 99=%d, 99.9=%d, 99.99=%d]",
		self.name,
		self.window.TotalCount(),
		self.window.Max(),
		self.window.Min(),
		self.window.Mean(),
		self.window.ValueAtQuantile(90),
		self.window.ValueAtQuantile(99),
		self.window.ValueAtQuantile(99.9),
		self.window.ValueAtQuantile(99.99))
	self.window.Reset()
	return ret
}

var (
	suffixes = []string{"th", "st", "nd", "rd", "th", "th", "th", "th", "th", "th"}
)

func ordinal(p float64) string {
	if p != math.Trunc(p) {
		return strconv.FormatFloat(p, 'f', -1, 64) + "th"
	}
	i := int64(p)
	switch i % 100 {
	case 11, 12, 13:
		return fmt.Sprintf("%dth", i)
	default:
		return fmt.Sprintf("%d%s", i, suffixes[i%10])
	}
}

// This is called on orderly termination.
func (self *OneMeasurementHdrHistogram) ExportMeasurements(exporter MeasurementExporter) error {
	self.lock.Lock()
	snapshot := hdrhistogram.Import(self.histogram.Export())
	self.lock.Unlock()

	name := self.name
	if err := exporter.Write(name, "Operations", snapshot.TotalCount()); err != nil {
		return err
	}
	if err := exporter.Write(name, "AverageLatency(us)", snapshot.Mean()); err != nil {
		return err
	}
	if err := exporter.Write(name, "MinLatency(us)", snapshot.Min()); err != nil {
		return err
	}
	if err := exporter.Write(name, "MaxLatency(us)", snapshot.Max()); err != nil {
		return err
	}
	for _, p := range self.percentiles {
		err := exporter.Write(name, ordinal(p)+"PercentileLatency(us)", snapshot.ValueAtQuantile(p))
		if err != nil {
			return err
		}
	}
	return self.ExportStatusCounts(exporter)
}

// Delegates to 2 measurement instances.
type TwoInOneMeasurement struct {
	*OneMeasurementBase
	thing1 OneMeasurement
	thing2 OneMeasurement
}

func NewTwoInOneMeasurement(name string, thing1, thing2 OneMeasurement) *TwoInOneMeasurement {
	return &TwoInOneMeasurement{
		OneMeasurementBase: NewOneMeasurementBase(name),
		thing1:             thing1,
		thing2:             thing2,
	}
}

func (self *TwoInOneMeasurement) Measure(latency int64) {
	self.thing1.Measure(latency)
	self.thing2.Measure(latency)
}

func (self *TwoInOneMeasurement) ReportStatus(status StatusType) {
	self.thing1.ReportStatus(status)
	self.thing2.ReportStatus(status)
}

func (self *TwoInOneMeasurement) GetSummary() string {
	s1, s2 := self.thing1.GetSummary(), self.thing2.GetSummary()
	if len(s1) == 0 || len(s2) == 0 {
		return s1 + s2
	}
	return s1 + " " + s2
}

func (self *TwoInOneMeasurement) ExportMeasurements(exporter MeasurementExporter) error {
	if err := self.thing1.ExportMeasurements(exporter); err != nil {
		return err
	}
	return self.thing2.ExportMeasurements(exporter)
}
