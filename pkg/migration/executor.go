// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/xid"
	"github.com/xataio/csv2chain/internal/progress"
	synclib "github.com/xataio/csv2chain/internal/sync"
	"github.com/xataio/csv2chain/pkg/chain"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/table"
)

// Executor runs migrations: for every configured function and every table row
// it schedules a contract call, reporting progress on the output log.
type Executor struct {
	client   chain.Client
	log      *outputlog.Log
	logger   loglib.Logger
	progress progress.Bar
	config   ExecutorConfig

	// concurrent mode
	sema synclib.WeightedSemaphore

	// serial mode, one queue per requested account. A send holds the lock
	// of the account it signs with, so queues resolving to the same account
	// never overlap.
	workers   *synclib.Map[string, *accountWorker]
	signers   *synclib.Map[string, *sync.Mutex]
	stop      chan struct{}
	workersWg sync.WaitGroup

	pending   sync.WaitGroup
	closeOnce sync.Once
}

type ExecutorOption func(*Executor)

type RunOptions struct {
	// From is the signing account. When empty, the first account returned
	// by the chain client at send time is used.
	From string
	// Progress receives the calls of this run instead of the executor
	// progress bar when set.
	Progress progress.Bar
}

// Run is a started migration.
type Run struct {
	id    string
	sends sync.WaitGroup
}

type sendRequest struct {
	runID    string
	function FunctionSnapshot
	args     []any
	from     string
	row      int
	progress progress.Bar
}

const (
	startMessage   = "Starting Migration..."
	trySendPrefix  = "Try to send Tx: "
	successMessage = "Tx successfully send"
)

// ErrorPrefix starts the output log lines reporting a failed call.
const ErrorPrefix = "ERROR: "

var (
	errIncompleteFunction = errors.New("migration function has no contract or function selected")
	errNoAccount          = errors.New("no account available")
)

func NewExecutor(client chain.Client, log *outputlog.Log, opts ...ExecutorOption) *Executor {
	e := &Executor{
		client:  client,
		log:     log,
		logger:  loglib.NewNoopLogger(),
		workers: synclib.NewMap[string, *accountWorker](),
		signers: synclib.NewMap[string, *sync.Mutex](),
		stop:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.sema == nil {
		e.sema = synclib.NewWeightedSemaphore(e.config.maxInFlight())
	}
	return e
}

func WithLogger(l loglib.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = loglib.WithModule(l, "migration_executor")
	}
}

// WithProgress reports every attempted call on the progress bar on input.
func WithProgress(bar progress.Bar) ExecutorOption {
	return func(e *Executor) {
		e.progress = bar
	}
}

func withSemaphore(s synclib.WeightedSemaphore) ExecutorOption {
	return func(e *Executor) {
		e.sema = s
	}
}

func WithExecutorConfig(cfg ExecutorConfig) ExecutorOption {
	return func(e *Executor) {
		e.config = cfg
	}
}

// Run starts a migration of the table rows through the functions on input
// and returns without waiting for the calls to complete. Incomplete functions
// are skipped. The "Try to send" lines of the run are appended to the output
// log before any call is sent.
func (e *Executor) Run(ctx context.Context, functions []FunctionSnapshot, t *table.Table, opts RunOptions) *Run {
	run := &Run{id: xid.New().String()}
	bar := e.progress
	if opts.Progress != nil {
		bar = opts.Progress
	}
	logger := e.logger.WithFields(loglib.Fields{loglib.RunIDField: run.id})
	logger.Info("starting migration", loglib.Fields{
		"functions": len(functions),
		"rows":      t.Len(),
		"mode":      e.config.mode(),
	})

	e.log.AppendRun(run.id, startMessage)

	utilities := e.client.Utilities()
	requests := []*sendRequest{}
	for _, fn := range functions {
		if !fn.Complete() {
			logger.Warn(errIncompleteFunction, "skipping migration function", loglib.Fields{
				loglib.FunctionField: fn.Name(),
			})
			continue
		}

		type rowArgs struct {
			args []any
			err  error
		}
		rows := make([]rowArgs, 0, t.Len())
		for row := 0; row < t.Len(); row++ {
			args, err := buildArgs(fn, t, row, utilities)
			rows = append(rows, rowArgs{args: args, err: err})
		}

		for row, ra := range rows {
			e.log.AppendRun(run.id, trySendPrefix+renderCall(fn, ra.args))
			if ra.err != nil {
				logger.Error(ra.err, "converting row values", loglib.Fields{
					loglib.FunctionField: fn.Name(),
					loglib.RowField:      row,
				})
				e.log.AppendRun(run.id, ErrorPrefix+ra.err.Error())
				e.addProgress(bar)
				continue
			}
			requests = append(requests, &sendRequest{
				runID:    run.id,
				function: fn,
				args:     ra.args,
				from:     opts.From,
				row:      row,
				progress: bar,
			})
		}
	}

	// calls are dispatched once every line of the run has been scheduled
	for _, req := range requests {
		e.schedule(ctx, run, req)
	}

	return run
}

// PlannedCalls returns the number of calls a run of the functions over the
// table attempts.
func PlannedCalls(functions []FunctionSnapshot, t *table.Table) int {
	total := 0
	for _, fn := range functions {
		if fn.Complete() {
			total += t.Len()
		}
	}
	return total
}

// Close waits for every scheduled call to complete and stops the account
// workers. Runs must not be started once Close is called.
func (e *Executor) Close() error {
	e.closeOnce.Do(func() {
		e.pending.Wait()
		close(e.stop)
		e.workersWg.Wait()
	})
	return nil
}

func (e *Executor) schedule(ctx context.Context, run *Run, req *sendRequest) {
	run.sends.Add(1)
	e.pending.Add(1)
	job := func() {
		defer e.pending.Done()
		defer run.sends.Done()
		e.send(ctx, req)
	}

	switch e.config.mode() {
	case ConcurrentMode:
		go func() {
			if err := e.sema.Acquire(ctx, 1); err != nil {
				e.pending.Done()
				run.sends.Done()
				e.log.AppendRun(req.runID, ErrorPrefix+err.Error())
				e.addProgress(req.progress)
				return
			}
			defer e.sema.Release(1)
			job()
		}()
	default:
		e.worker(req.from).enqueue(job)
	}
}

func (e *Executor) worker(account string) *accountWorker {
	w, found := e.workers.LoadOrStore(account, newAccountWorker)
	if found {
		return w
	}
	e.workersWg.Add(1)
	go func() {
		defer e.workersWg.Done()
		w.run(e.stop)
	}()
	return w
}

// send resolves the signing account and calls the function. The outcome is
// appended to the output log, except when no account is available.
func (e *Executor) send(ctx context.Context, req *sendRequest) {
	defer e.addProgress(req.progress)

	fields := loglib.Fields{
		loglib.RunIDField:    req.runID,
		loglib.ContractField: req.function.Contract.Name,
		loglib.FunctionField: req.function.Function.Name,
		loglib.RowField:      req.row,
	}

	from := req.from
	if from == "" {
		accounts, err := e.client.Accounts(ctx)
		if err != nil {
			e.logger.Error(err, "retrieving accounts", fields)
			e.log.AppendRun(req.runID, ErrorPrefix+err.Error())
			return
		}
		if len(accounts) == 0 {
			e.logger.Warn(errNoAccount, "call not sent", fields)
			return
		}
		from = accounts[0]
	}
	fields[loglib.AccountField] = from

	if e.config.mode() == SerialMode {
		signer, _ := e.signers.LoadOrStore(from, func() *sync.Mutex { return &sync.Mutex{} })
		signer.Lock()
		defer signer.Unlock()
	}

	err := e.client.Call(ctx, &chain.CallRequest{
		Contract: req.function.Contract,
		Address:  req.function.Contract.Address,
		Function: req.function.Function.Name,
		Args:     req.args,
		From:     from,
	})
	if err != nil {
		e.logger.Error(err, "call failed", fields)
		e.log.AppendRun(req.runID, ErrorPrefix+err.Error())
		return
	}

	e.logger.Debug("call sent", fields)
	e.log.AppendRun(req.runID, successMessage)
}

func (e *Executor) addProgress(bar progress.Bar) {
	if bar == nil {
		return
	}
	if err := bar.Add(1); err != nil {
		e.logger.Warn(err, "updating progress bar")
	}
}

func (r *Run) ID() string {
	return r.id
}

// Wait blocks until every call scheduled by the run has completed.
func (r *Run) Wait() {
	r.sends.Wait()
}
