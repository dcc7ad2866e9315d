// Package observability registers Prometheus metrics for the devpulse service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	presenceUpdateCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devpulse",
		Subsystem: "presence",
		Name:      "updates_total",
		Help:      "Number of presence updates stored, labeled heartbeat or event.",
	}, []string{"kind"})

	presenceUpdateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "devpulse",
		Subsystem: "presence",
		Name:      "last_update_timestamp_seconds",
		Help:      "Unix timestamp of the most recent presence write.",
	})

	commitCachedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "devpulse",
		Subsystem: "commits",
		Name:      "last_cached_timestamp_seconds",
		Help:      "Commit timestamp of the most recently cached push event.",
	})

	notificationForwardCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devpulse",
		Subsystem: "notifications",
		Name:      "forwards_total",
		Help:      "Notification relay outcomes, labeled forwarded, failed, or skipped.",
	}, []string{"outcome"})

	activityPublishCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "devpulse",
		Subsystem: "events",
		Name:      "activity_published_total",
		Help:      "Activity entries published to the Kafka feed.",
	})

	activityPublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "devpulse",
		Subsystem: "events",
		Name:      "activity_publish_failures_total",
		Help:      "Activity entries that failed to publish to the Kafka feed.",
	})
)

func init() {
	prometheus.MustRegister(
		presenceUpdateCounter,
		presenceUpdateGauge,
		commitCachedGauge,
		notificationForwardCounter,
		activityPublishCounter,
		activityPublishFailures,
	)
}

// RecordPresenceUpdate updates the presence write counters and watermark.
func RecordPresenceUpdate(heartbeat bool, ts time.Time) {
	kind := "event"
	if heartbeat {
		kind = "heartbeat"
	}
	presenceUpdateCounter.WithLabelValues(kind).Inc()
	if !ts.IsZero() {
		presenceUpdateGauge.Set(float64(ts.Unix()))
	}
}

// RecordCommitCached updates the commit cache watermark gauge.
func RecordCommitCached(ts time.Time) {
	if ts.IsZero() {
		return
	}
	commitCachedGauge.Set(float64(ts.Unix()))
}

// RecordNotificationForward counts one relay outcome.
func RecordNotificationForward(outcome string) {
	notificationForwardCounter.WithLabelValues(outcome).Inc()
}

// RecordActivityPublished counts one successful feed publish.
func RecordActivityPublished() {
	activityPublishCounter.Inc()
}

// RecordActivityPublishFailure counts one failed feed publish.
func RecordActivityPublishFailure() {
	activityPublishFailures.Inc()
}
