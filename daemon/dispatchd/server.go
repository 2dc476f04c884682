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

package dispatchd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/fredenrg/0rora/config"
	"github.com/fredenrg/0rora/data/pools"
	"github.com/fredenrg/0rora/dispatcher"
	"github.com/fredenrg/0rora/ledgerclient"
	"github.com/fredenrg/0rora/logging"
	"github.com/fredenrg/0rora/store"
	"github.com/fredenrg/0rora/util/execpool"
)

const (
	// maxHeaderBytes bounds request headers on the ops server
	maxHeaderBytes = 4096

	// shutdownTimeout bounds how long in-flight ops requests may take once stopping
	shutdownTimeout = 5 * time.Second

	// PidFilename holds the process id of a running dispatcher, relative to its data directory
	PidFilename = "dispatchd.pid"
	// NetFilename holds the ops endpoint address of a running dispatcher
	NetFilename = "dispatchd.net"
)

// Server assembles the payment store, the ledger client, the dispatcher, its
// scheduler and the ops HTTP server.
type Server struct {
	RootPath string

	log        logging.Logger
	cfg        config.Local
	store      *store.SQLStore
	ledger     ledgerclient.RestClient
	dispatcher *dispatcher.Dispatcher
	scheduler  *dispatcher.Scheduler
	opsServer  *http.Server
	listener   net.Listener
	pidFile    string
	netFile    string
}

// Initialize opens the payment store and builds every component. Nothing runs
// until Run is called.
func (s *Server) Initialize(cfg config.Local, rootPath string, log logging.Logger) error {
	if err := cfg.Check(); err != nil {
		return err
	}
	accounts, err := cfg.ChannelAccountAddresses()
	if err != nil {
		return err
	}
	endpoint, err := url.Parse(cfg.LedgerEndpoint)
	if err != nil {
		return fmt.Errorf("LedgerEndpoint %q: %w", cfg.LedgerEndpoint, err)
	}

	s.RootPath = rootPath
	s.log = log
	s.cfg = cfg

	dbPath := cfg.ResolvePaymentsDBFile(rootPath)
	s.store, err = store.Open(context.Background(), dbPath, false, log)
	if err != nil {
		return fmt.Errorf("unable to open payments database %s: %w", dbPath, err)
	}
	log.Infof("payments database %s opened", dbPath)

	s.ledger = ledgerclient.MakeRestClient(*endpoint, cfg.LedgerAPIToken)
	clk := clock.New()
	pool := pools.MakeAccountPool()
	s.dispatcher = dispatcher.MakeDispatcher(cfg, log, s.store, s.ledger, pool, execpool.MakePool(s, cfg.SubmitParallelism), clk)
	s.scheduler = &dispatcher.Scheduler{
		Poster:          s.dispatcher,
		Clock:           clk,
		Log:             log,
		Accounts:        accounts,
		RefreshInterval: cfg.RefreshDueTimeInterval,
		AttemptInterval: cfg.AttemptProcessingInterval,
		ResyncInterval:  cfg.AccountResyncInterval,
	}

	if cfg.OpsEndpointAddress != "" {
		s.listener, err = net.Listen("tcp", cfg.OpsEndpointAddress)
		if err != nil {
			s.store.Close()
			return fmt.Errorf("could not start ops endpoint on %s: %w", cfg.OpsEndpointAddress, err)
		}
		s.opsServer = &http.Server{
			Handler:        NewRouter(log, s.dispatcher, s.store, nil),
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxHeaderBytes: maxHeaderBytes,
		}
	}
	return nil
}

// OpsAddress returns the address the ops server listens on, or "" when it is disabled
func (s *Server) OpsAddress() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Store returns the payment store the server dispatches from
func (s *Server) Store() *store.SQLStore {
	return s.store
}

// Run starts the dispatcher, the scheduler and the ops server and blocks until
// ctx is cancelled or one of them fails. The payment store is closed on return.
func (s *Server) Run(ctx context.Context) error {
	defer s.store.Close()

	healthCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerRequestTimeout)
	err := s.ledger.HealthCheck(healthCtx)
	cancel()
	if err != nil {
		// not fatal: retired channel accounts are fetched again on resync
		s.log.Warnf("ledger gateway %s is not healthy: %v", s.cfg.LedgerEndpoint, err)
	}

	s.writeRuntimeFiles()
	defer s.removeRuntimeFiles()

	s.dispatcher.Start()
	defer s.dispatcher.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.scheduler.Run(gctx)
		return nil
	})
	if s.opsServer != nil {
		g.Go(func() error {
			s.log.Infof("ops endpoint listening on %s", s.listener.Addr())
			err := s.opsServer.Serve(s.listener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return s.opsServer.Shutdown(shutdownCtx)
		})
	}
	s.log.Info("payment dispatcher started")
	err = g.Wait()
	s.log.Info("payment dispatcher stopping")
	return err
}

func (s *Server) writeRuntimeFiles() {
	s.pidFile = filepath.Join(s.RootPath, PidFilename)
	err := os.WriteFile(s.pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
	if err != nil {
		s.log.Warnf("unable to write %s: %v", s.pidFile, err)
	}
	if s.listener != nil {
		s.netFile = filepath.Join(s.RootPath, NetFilename)
		err = os.WriteFile(s.netFile, []byte(s.OpsAddress()+"\n"), 0644)
		if err != nil {
			s.log.Warnf("unable to write %s: %v", s.netFile, err)
		}
	}
}

func (s *Server) removeRuntimeFiles() {
	for _, f := range []string{s.pidFile, s.netFile} {
		if f == "" {
			continue
		}
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			s.log.Warnf("unable to remove %s: %v", f, err)
		}
	}
}
