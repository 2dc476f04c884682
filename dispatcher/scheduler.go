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

package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/logging"
)

// Poster accepts messages for the dispatcher loop
type Poster interface {
	Post(ctx context.Context, msg Message) error
}

// Scheduler feeds the dispatcher its periodic messages: RefreshDueTime,
// AttemptProcessing and a resync of the configured channel accounts.
type Scheduler struct {
	Poster   Poster
	Clock    clock.Clock
	Log      logging.Logger
	Accounts []basics.Address

	RefreshInterval time.Duration
	AttemptInterval time.Duration
	ResyncInterval  time.Duration

	wg sync.WaitGroup
}

// Run registers the channel accounts, refreshes the due time and then ticks
// until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.resync(ctx)
	s.post(ctx, RefreshDueTime{})

	refresh := s.Clock.Ticker(s.RefreshInterval)
	defer refresh.Stop()
	attempt := s.Clock.Ticker(s.AttemptInterval)
	defer attempt.Stop()

	var resyncC <-chan time.Time
	if s.ResyncInterval > 0 {
		resync := s.Clock.Ticker(s.ResyncInterval)
		defer resync.Stop()
		resyncC = resync.C
	}

	for {
		select {
		case <-refresh.C:
			s.post(ctx, RefreshDueTime{})
		case <-attempt.C:
			s.post(ctx, AttemptProcessing{})
		case <-resyncC:
			s.resync(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Start runs the scheduler in the background
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(ctx)
	}()
}

// Wait blocks until a started scheduler returns
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// resync asks the dispatcher to register the configured accounts it lost
func (s *Scheduler) resync(ctx context.Context) {
	if len(s.Accounts) == 0 {
		return
	}
	s.post(ctx, resyncAccounts{Accounts: s.Accounts})
}

func (s *Scheduler) post(ctx context.Context, msg Message) {
	if err := s.Poster.Post(ctx, msg); err != nil && ctx.Err() == nil {
		s.Log.Warnf("scheduler: unable to post %s: %v", msg.messageName(), err)
	}
}
