package hotbench

const (
	// MeasuredDB
	PropertyReportLatencyForEachError        = "reportlatencyforeacherror"
	PropertyReportLatencyForEachErrorDefault = "false"

	// BasicDB
	ConfigBasicDBVerbose        = "basicdb.verbose"
	ConfigBasicDBVerboseDefault = "true"
	ConfigSimulateDelay         = "basicdb.simulatedelay"
	ConfigSimulateDelayDefault  = "0"
	ConfigRandomizeDelay        = "basicdb.randomizedelay"
	ConfigRandomizeDelayDefault = "true"

	// MemoryDB
	// Name of the in-process store. DB instances with the same name share
	// their records.
	ConfigMemoryDBName        = "memorydb.name"
	ConfigMemoryDBNameDefault = "default"

	// Logging
	PropertyLogLevel          = "log.level"
	PropertyLogLevelDefault   = "info"
	PropertyLogConsole        = "log.console"
	PropertyLogConsoleDefault = "true"

	// Client
	// The number of records to load into the database initially.
	PropertyRecordCount        = "recordcount"
	PropertyRecordCountDefault = "0"
	// The target number of operations to perform.
	PropertyOperationCount        = "operationcount"
	PropertyOperationCountDefault = "0"
	// The workload to be loaded.
	PropertyWorkload        = "workload"
	PropertyWorkloadDefault = "CoreWorkload"
	// The database to be used.
	PropertyDB        = "db"
	PropertyDBDefault = "basic"
	// The exporter to be used.
	PropertyExporter        = "exporter"
	PropertyExporterDefault = "TextMeasurementExporter"
	// If set to the path of a file, this file will be written instead of stdout.
	PropertyExportFile = "exportfile"
	// The number of client goroutines to run.
	PropertyThreadCount        = "threadcount"
	PropertyThreadCountDefault = "1"
	// Indicates how many inserts to do, if less than `recordcount`.
	// Useful for partitioning the load among multiple servers, if the client
	// is the bottleneck. The "insertstart" property tells the workload which
	// record to start at.
	PropertyInsertCount = "insertcount"
	// Target number of operations per second, 0 for unthrottled.
	PropertyTarget        = "target"
	PropertyTargetDefault = "0"
	// The maximum amount of time (in seconds) for which the benchmark will be run.
	PropertyMaxExecutionTime        = "maxexecutiontime"
	PropertyMaxExecutionTimeDefault = "0"
	// Whether or not this is the transaction phase (run) or not (load).
	PropertyTransactions        = "dotransactions"
	PropertyTransactionsDefault = "true"
	// Seconds between two status lines.
	PropertyStatusInterval        = "status.interval"
	PropertyStatusIntervalDefault = "10"

	// Workload
	PropertyInsertStart        = "insertstart"
	PropertyInsertStartDefault = "0"
	// The name of the database table to run queries against.
	PropertyTableName        = "table"
	PropertyTableNameDefault = "usertable"
	// The number of fields in a record.
	PropertyFieldCount        = "fieldcount"
	PropertyFieldCountDefault = "10"
	// The field length distribution. Options are "uniform", "zipfian"
	// (favoring short records) and "constant".
	PropertyFieldLengthDistribution        = "fieldlengthdistribution"
	PropertyFieldLengthDistributionDefault = "constant"
	// The length of a field in bytes.
	PropertyFieldLength        = "fieldlength"
	PropertyFieldLengthDefault = "100"
	// Whether to read one field (false) or all fields (true) of a record.
	PropertyReadAllFields        = "readallfields"
	PropertyReadAllFieldsDefault = "true"
	// Whether to write one field (false) or all fields (true) of a record.
	PropertyWriteAllFields        = "writeallfields"
	PropertyWriteAllFieldsDefault = "false"
	// Whether to check all returned data against the formation template to
	// ensure data integrity.
	PropertyDataIntegrity        = "dataintegrity"
	PropertyDataIntegrityDefault = "false"
	// The proportion of transactions that are reads.
	PropertyReadProportion        = "readproportion"
	PropertyReadProportionDefault = "0.95"
	// The proportion of transactions that are updates.
	PropertyUpdateProportion        = "updateproportion"
	PropertyUpdateProportionDefault = "0.05"
	// The proportion of transactions that are inserts.
	PropertyInsertProportion        = "insertproportion"
	PropertyInsertProportionDefault = "0.0"
	// The proportion of transactions that are scans.
	PropertyScanProportion        = "scanproportion"
	PropertyScanProportionDefault = "0.0"
	// The proportion of transactions that are read-modify-write.
	PropertyReadModifyWriteProportion        = "readmodifywriteproportion"
	PropertyReadModifyWriteProportionDefault = "0.0"
	// The distribution of requests across the keyspace. Options are
	// "uniform", "zipfian", "latest", "hotspot" and "exponential".
	PropertyRequestDistribution        = "requestdistribution"
	PropertyRequestDistributionDefault = "hotspot"
	// The max scan length (number of records).
	PropertyMaxScanLength        = "maxscanlength"
	PropertyMaxScanLengthDefault = "1000"
	// The scan length distribution. Options are "uniform" and "zipfian"
	// (favoring short scans).
	PropertyScanLengthDistribution        = "scanlengthdistribution"
	PropertyScanLengthDistributionDefault = "uniform"
	// The order to insert records. Options are "ordered" or "hashed".
	PropertyInsertOrder        = "insertorder"
	PropertyInsertOrderDefault = "hashed"
	// Fraction of the data items that constitute the hot set.
	HotspotDataFraction        = "hotspotdatafraction"
	HotspotDataFractionDefault = "0.2"
	// Fraction of the operations that access the hot set.
	HotspotOpnFraction        = "hotspotopnfraction"
	HotspotOpnFractionDefault = "0.8"
	// How many times to retry when insertion of a single item to a DB fails.
	InsertionRetryLimit        = "core_workload_insertion_retry_limit"
	InsertionRetryLimitDefault = "0"
	// On average, how long to wait between the retries, in seconds.
	InsertionRetryInterval        = "core_workload_insertion_retry_interval"
	InsertionRetryIntervalDefault = "3"

	// Measurement
	// Options are "hdrhistogram", "histogram" and "hdrhistogram+histogram".
	PropertyMeasurementType        = "measurementtype"
	PropertyMeasurementTypeDefault = "hdrhistogram"
	// The number of 1ms buckets of the "histogram" measurement.
	Buckets        = "histogram.buckets"
	BucketsDefault = "1000"
	// The percentile values to output.
	PropertyPercentiles        = "hdrhistogram.percentiles"
	PropertyPercentilesDefault = "95,99"
	// The largest latency (us) the hdrhistogram tracks.
	PropertyHdrHistogramMax        = "hdrhistogram.max"
	PropertyHdrHistogramMaxDefault = "3600000000"
	// The number of significant value digits of the hdrhistogram.
	PropertyHdrHistogramSig        = "hdrhistogram.sig"
	PropertyHdrHistogramSigDefault = "3"

	// Generator
	// What percentage of the readings should be within the most recent
	// exponential.frac portion of the dataset?
	PropertyExponentialPercentile        = "exponential.percentile"
	PropertyExponentialPercentileDefault = "95"
	// What fraction of the dataset should be accessed exponential.percentile
	// of the time?
	PropertyExponentialFraction        = "exponential.frac"
	PropertyExponentialFractionDefault = "0.8571428571" // 1/7
)
