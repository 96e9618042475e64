package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

type job struct {
	ctx  context.Context
	run  func(ctx context.Context)
	done chan struct{}
}

// Dispatcher runs commands for concurrent callers one at a time on a single
// worker goroutine. A command that has been accepted always runs to completion.
type Dispatcher struct {
	svc  *TransferService
	jobs chan job
	quit chan struct{}

	started   atomic.Bool
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewDispatcher(svc *TransferService) *Dispatcher {
	return &Dispatcher{
		svc:     svc,
		jobs:    make(chan job),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	if d.started.CompareAndSwap(false, true) {
		go d.workerLoop()
	}
}

func (d *Dispatcher) workerLoop() {
	defer close(d.stopped)
	for {
		select {
		case j := <-d.jobs:
			j.run(j.ctx)
			close(j.done)
		case <-d.quit:
			return
		}
	}
}

// do hands fn to the worker and waits for it. ctx only bounds the wait for
// the worker to accept the job.
func (d *Dispatcher) do(ctx context.Context, fn func(ctx context.Context)) error {
	j := job{ctx: context.WithoutCancel(ctx), run: fn, done: make(chan struct{})}
	select {
	case d.jobs <- j:
	case <-d.quit:
		return ErrDispatcherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-j.done
	return nil
}

func (d *Dispatcher) Submit(ctx context.Context, line string) (Outcome, error) {
	var out Outcome
	err := d.do(ctx, func(ctx context.Context) {
		out = d.svc.Submit(ctx, line)
	})
	return out, err
}

func (d *Dispatcher) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var snapErr error
	if err := d.do(ctx, func(ctx context.Context) {
		snap, snapErr = d.svc.Snapshot(ctx)
	}); err != nil {
		return Snapshot{}, err
	}
	return snap, snapErr
}

// Close stops the worker after the job in progress, if any, finishes.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.quit)
	})
	if d.started.Load() {
		<-d.stopped
	}
}
