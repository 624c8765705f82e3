// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package metrics holds the prometheus collectors of the data tree.
// Collectors register with the default registry when the package is
// loaded.
package metrics

import (
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const namespace = "datatree"

var (
	// Applies counts modification applies by result (ok, invalid, error).
	Applies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applies_total",
		Help:      "Total modification applies by result",
	}, []string{"result"})

	// ApplyDuration tracks how long applying a modification takes.
	ApplyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "apply_duration_seconds",
		Help:      "Modification apply duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	// Commits counts snapshots published by a data tree.
	Commits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commits_total",
		Help:      "Total committed modifications",
	})

	// Rebases counts modifications re-applied onto a newer snapshot.
	Rebases = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rebases_total",
		Help:      "Total modifications rebased onto a newer snapshot",
	})

	// Conflicts counts modifications rejected by optimistic conflict
	// detection.
	Conflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflicts_total",
		Help:      "Total modifications rejected as conflicting",
	})

	// ValidationFailures counts schema validation failures by the
	// violated constraint.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Total schema validation failures by constraint",
	}, []string{"constraint"})

	// SchemaUpgrades counts schema context swaps.
	SchemaUpgrades = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schema_upgrades_total",
		Help:      "Total schema context upgrades",
	})
)

// ObserveApply records the outcome and duration of one apply.
func ObserveApply(result string, start time.Time) {
	Applies.WithLabelValues(result).Inc()
	ApplyDuration.Observe(time.Since(start).Seconds())
}

// Write writes the data tree collectors of the default registry to w
// in the prometheus text format.
func Write(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
