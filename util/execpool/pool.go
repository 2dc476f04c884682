// Copyright (C) 2019-2021 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Package execpool runs tasks on a fixed set of worker goroutines and hands
// each result to a caller supplied channel.
package execpool

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrShutdown is returned by Enqueue once the pool is shutting down.
var ErrShutdown = errors.New("execpool: pool is shut down")

// ExecFunc is the function signature of a task executed by the pool.
type ExecFunc func(arg interface{}) interface{}

// ExecutionPool interface exposes the core functionality of the execution pool.
type ExecutionPool interface {
	// Enqueue queues t for execution. When out is not nil the task result is
	// written to it. Enqueue blocks while every worker is busy and the queue
	// is full, until enqueueCtx is done or the pool shuts down.
	Enqueue(enqueueCtx context.Context, t ExecFunc, arg interface{}, out chan<- interface{}) error
	GetParallelism() int
	GetOwner() interface{}
	Shutdown()
}

type pool struct {
	wg          sync.WaitGroup
	inputs      chan enqueuedTask
	ctx         context.Context
	cancel      context.CancelFunc
	parallelism int
	owner       interface{}
}

type enqueuedTask struct {
	execFunc ExecFunc
	arg      interface{}
	out      chan<- interface{}
}

// MakePool creates a pool of parallelism workers. A non-positive
// parallelism uses the number of CPUs.
func MakePool(owner interface{}, parallelism int) ExecutionPool {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	p := &pool{
		inputs:      make(chan enqueuedTask, parallelism),
		parallelism: parallelism,
		owner:       owner,
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(parallelism)
	for i := 0; i < parallelism; i++ {
		go p.worker()
	}
	return p
}

func (p *pool) GetParallelism() int {
	return p.parallelism
}

func (p *pool) GetOwner() interface{} {
	return p.owner
}

func (p *pool) Enqueue(enqueueCtx context.Context, t ExecFunc, arg interface{}, out chan<- interface{}) error {
	if p.ctx.Err() != nil {
		return ErrShutdown
	}
	select {
	case p.inputs <- enqueuedTask{execFunc: t, arg: arg, out: out}:
		return nil
	case <-enqueueCtx.Done():
		return enqueueCtx.Err()
	case <-p.ctx.Done():
		return ErrShutdown
	}
}

// Shutdown stops accepting tasks and waits for running ones to return.
// Results that cannot be delivered once shutdown begins are dropped.
func (p *pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.inputs:
			res := task.execFunc(task.arg)
			if task.out == nil {
				continue
			}
			select {
			case task.out <- res:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
