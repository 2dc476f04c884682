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

// Package metrics exposes dispatcher counters and gauges in prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricName describes the name and description of a single metric
type MetricName struct {
	Name        string
	Description string
}

// Registry represents a single set of metrics registry
type Registry struct {
	reg *prometheus.Registry
}

var defaultRegistry = makeDefaultRegistry()

func makeDefaultRegistry() *Registry {
	r := MakeRegistry()
	r.reg.MustRegister(collectors.NewGoCollector())
	r.reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}

// MakeRegistry creates a new, empty metrics registry
func MakeRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// DefaultRegistry returns the process-wide registry served by the ops endpoint.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds c to the registry. Registering the same metric name twice panics.
func (r *Registry) Register(c prometheus.Collector) {
	r.reg.MustRegister(c)
}

// Deregister removes c from the registry
func (r *Registry) Deregister(c prometheus.Collector) {
	r.reg.Unregister(c)
}

// Handler serves the registry in the prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func registryOrDefault(reg *Registry) *Registry {
	if reg == nil {
		return defaultRegistry
	}
	return reg
}
