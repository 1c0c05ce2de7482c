package hotbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hhkbp2/go-strftime"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	statusTimeFormat = "%Y-%m-%d %H:%M:%S"
)

// Result describes one finished load or run phase.
type Result struct {
	Operations int64
	RunTime    time.Duration
}

// Throughput returns the operations per second of the phase.
func (self *Result) Throughput() float64 {
	if self.RunTime <= 0 {
		return 0
	}
	return float64(self.Operations) / self.RunTime.Seconds()
}

// Client drives a workload against a database with a pool of goroutines.
type Client struct {
	props        Properties
	out          io.Writer
	statusOut    io.Writer
	measurements *DefaultMeasurements
}

type ClientOption func(*Client)

// WithOutput sets where measurements are exported when no `exportfile`
// is configured. Defaults to stdout.
func WithOutput(w io.Writer) ClientOption {
	return func(c *Client) {
		c.out = w
	}
}

// WithStatus enables periodic status lines written to w.
func WithStatus(w io.Writer) ClientOption {
	return func(c *Client) {
		c.statusOut = w
	}
}

func NewClient(props Properties, opts ...ClientOption) (*Client, error) {
	measurements, err := NewDefaultMeasurements(props)
	if err != nil {
		return nil, err
	}
	object := &Client{
		props:        props,
		out:          os.Stdout,
		measurements: measurements,
	}
	for _, opt := range opts {
		opt(object)
	}
	return object, nil
}

func (self *Client) Measurements() Measurements {
	return self.measurements
}

// Load inserts the initial records.
func (self *Client) Load(ctx context.Context) (*Result, error) {
	return self.run(ctx, false)
}

// Run performs the transaction phase.
func (self *Client) Run(ctx context.Context) (*Result, error) {
	return self.run(ctx, true)
}

type clientConfig struct {
	database         string
	threadCount      int64
	target           float64
	maxExecutionTime int64
	operationCount   int64
	statusInterval   int64
}

func (self *Client) config(transactions bool) (*clientConfig, error) {
	p := self.props
	config := &clientConfig{
		database: p.GetDefault(PropertyDB, PropertyDBDefault),
	}
	var err error
	if config.threadCount, err = p.GetInt64(PropertyThreadCount, PropertyThreadCountDefault); err != nil {
		return nil, err
	}
	if config.threadCount <= 0 {
		return nil, fmt.Errorf("%w %s: must be positive", ErrInvalidProperty, PropertyThreadCount)
	}
	if config.target, err = p.GetFloat64(PropertyTarget, PropertyTargetDefault); err != nil {
		return nil, err
	}
	if config.maxExecutionTime, err = p.GetInt64(PropertyMaxExecutionTime, PropertyMaxExecutionTimeDefault); err != nil {
		return nil, err
	}
	if config.statusInterval, err = p.GetInt64(PropertyStatusInterval, PropertyStatusIntervalDefault); err != nil {
		return nil, err
	}
	if config.statusInterval <= 0 {
		return nil, fmt.Errorf("%w %s: must be positive", ErrInvalidProperty, PropertyStatusInterval)
	}
	switch {
	case transactions:
		config.operationCount, err = p.GetInt64(PropertyOperationCount, PropertyOperationCountDefault)
	case len(p.Get(PropertyInsertCount)) > 0:
		config.operationCount, err = p.GetInt64(PropertyInsertCount, "")
	default:
		config.operationCount, err = p.GetInt64(PropertyRecordCount, PropertyRecordCountDefault)
	}
	if err != nil {
		return nil, err
	}
	if config.operationCount < 0 {
		return nil, fmt.Errorf("%w: operation count must not be negative", ErrInvalidProperty)
	}
	return config, nil
}

func (self *Client) run(ctx context.Context, transactions bool) (*Result, error) {
	config, err := self.config(transactions)
	if err != nil {
		return nil, err
	}
	workload, err := NewWorkload(self.props.GetDefault(PropertyWorkload, PropertyWorkloadDefault), self.measurements)
	if err != nil {
		return nil, err
	}
	if err = workload.Init(self.props); err != nil {
		return nil, fmt.Errorf("init workload: %w", err)
	}
	if config.maxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(config.maxExecutionTime)*time.Second)
		defer cancel()
	}

	phase := "load"
	if transactions {
		phase = "run"
	}
	Infof("starting %s phase: db=%s threads=%d operations=%d target=%.0f",
		phase, config.database, config.threadCount, config.operationCount, config.target)

	var operations atomic.Int64
	start := time.Now()
	stopStatus := self.startStatus(config, start, &operations)

	group, groupCtx := errgroup.WithContext(ctx)
	for i := int64(0); i < config.threadCount; i++ {
		// the first `operationCount % threadCount` workers do one extra
		ops := config.operationCount / config.threadCount
		if i < config.operationCount%config.threadCount {
			ops++
		}
		group.Go(func() error {
			return self.work(groupCtx, config, workload, transactions, ops, &operations)
		})
	}
	err = group.Wait()
	runTime := time.Since(start)
	stopStatus()
	if cleanupErr := workload.Cleanup(); err == nil {
		err = cleanupErr
	}
	if err != nil {
		return nil, err
	}
	result := &Result{
		Operations: operations.Load(),
		RunTime:    runTime,
	}
	Infof("finished %s phase: %d operations in %s", phase, result.Operations, runTime)
	if err = self.export(result); err != nil {
		return nil, err
	}
	return result, nil
}

// work runs the operations of one client goroutine. An operation count of
// zero means no limit in the transaction phase, the run then ends with the
// context.
func (self *Client) work(
	ctx context.Context,
	config *clientConfig,
	workload Workload,
	transactions bool,
	ops int64,
	operations *atomic.Int64) error {

	unlimited := transactions && config.operationCount == 0
	if !unlimited && ops == 0 {
		return nil
	}
	db, err := NewDB(config.database, self.props)
	if err != nil {
		return err
	}
	measured := NewMeasuredDB(db, self.measurements)
	if err = measured.Init(); err != nil {
		return fmt.Errorf("init db %s: %w", config.database, err)
	}
	state, err := workload.InitRoutine(self.props)
	if err != nil {
		measured.Cleanup()
		return err
	}
	var limiter *rate.Limiter
	if config.target > 0 {
		perThread := config.target / float64(config.threadCount)
		limiter = rate.NewLimiter(rate.Limit(perThread), 1)
	}

	for done := int64(0); unlimited || done < ops; done++ {
		if limiter != nil {
			if err = limiter.Wait(ctx); err != nil {
				break
			}
		} else if ctx.Err() != nil {
			break
		}
		var ok bool
		if transactions {
			ok = workload.DoTransaction(measured, state)
		} else {
			ok = workload.DoInsert(measured, state)
		}
		if !ok {
			break
		}
		operations.Add(1)
	}
	return measured.Cleanup()
}

// startStatus reports progress every status interval until the returned
// function is called.
func (self *Client) startStatus(config *clientConfig, start time.Time, operations *atomic.Int64) func() {
	if self.statusOut == nil {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Duration(config.statusInterval) * time.Second)
		defer ticker.Stop()
		lastOps := int64(0)
		last := start
		for {
			select {
			case <-done:
				self.printStatus(start, last, lastOps, operations.Load(), time.Now())
				return
			case now := <-ticker.C:
				ops := operations.Load()
				self.printStatus(start, last, lastOps, ops, now)
				last, lastOps = now, ops
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (self *Client) printStatus(start, last time.Time, lastOps, ops int64, now time.Time) {
	elapsed := now.Sub(start)
	window := now.Sub(last).Seconds()
	current := 0.0
	if window > 0 {
		current = float64(ops-lastOps) / window
	}
	Fprintf(self.statusOut, "%s %d sec: %d operations; %.2f current ops/sec; %s",
		strftime.Format(statusTimeFormat, now),
		int64(elapsed.Seconds()), ops, current, self.measurements.GetSummary())
}

func (self *Client) export(result *Result) (err error) {
	var w io.Writer = self.out
	if path := self.props.Get(PropertyExportFile); len(path) > 0 {
		f, openErr := os.Create(path)
		if openErr != nil {
			return fmt.Errorf("open export file: %w", openErr)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		w = f
	}
	exporter, err := NewMeasurementExporter(self.props.GetDefault(PropertyExporter, PropertyExporterDefault), w)
	if err != nil {
		return err
	}
	if err = exporter.Write("OVERALL", "RunTime(ms)", result.RunTime.Milliseconds()); err != nil {
		return err
	}
	if err = exporter.Write("OVERALL", "Throughput(ops/sec)", result.Throughput()); err != nil {
		return err
	}
	if err = self.measurements.ExportMeasurements(exporter); err != nil {
		return err
	}
	return exporter.Close()
}
