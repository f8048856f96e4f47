package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "attendance_recorded_total",
		Help:      "Attendance records written, by status.",
	}, []string{"status"})

	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "attendance_rejected_total",
		Help:      "Attendance submissions rejected before write, by reason.",
	}, []string{"reason"})

	reportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classattend",
		Name:      "report_duration_seconds",
		Help:      "Time spent building attendance reports.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"view"})

	reportCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "report_cache_total",
		Help:      "Monthly report cache lookups, by result.",
	}, []string{"result"})
)
