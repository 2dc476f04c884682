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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Counter represent a single counter variable, optionally partitioned by a
// fixed set of label names.
type Counter struct {
	vec *prometheus.CounterVec
}

// MakeCounter creates a counter registered with the default registry.
func MakeCounter(metric MetricName, labelNames ...string) *Counter {
	c := &Counter{vec: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metric.Name,
		Help: metric.Description,
	}, labelNames)}
	c.Register(nil)
	return c
}

// NewCounter is a shortcut to MakeCounter in one shorter line.
func NewCounter(name, desc string) *Counter {
	return MakeCounter(MetricName{Name: name, Description: desc})
}

// Register registers the counter with the default/specific registry
func (counter *Counter) Register(reg *Registry) {
	registryOrDefault(reg).Register(counter.vec)
}

// Deregister deregisters the counter with the default/specific registry
func (counter *Counter) Deregister(reg *Registry) {
	registryOrDefault(reg).Deregister(counter.vec)
}

// Inc increases counter by 1. labels must name exactly the counter's label names.
func (counter *Counter) Inc(labels map[string]string) {
	counter.vec.With(labels).Inc()
}

// AddUint64 increases counter by x
func (counter *Counter) AddUint64(x uint64, labels map[string]string) {
	counter.vec.With(labels).Add(float64(x))
}

// GetUint64ValueForLabels returns the value of the counter for the given labels.
func (counter *Counter) GetUint64ValueForLabels(labels map[string]string) uint64 {
	var m dto.Metric
	if err := counter.vec.With(labels).Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}

// GetUint64Value returns the value of an unlabeled counter.
func (counter *Counter) GetUint64Value() uint64 {
	return counter.GetUint64ValueForLabels(nil)
}
