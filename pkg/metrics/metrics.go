package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// critical section entries per peer
	// with no failures every active peer should keep growing
	CSEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lamlock_cs_entries_total",
			Help: "total number of critical section entries",
		},
		[]string{"peer"},
	)

	// time between issuing ENTER and entering the critical section
	// long tails point at slow or crashed peers
	CSWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lamlock_cs_wait_seconds",
			Help:    "time waited for permission to enter the critical section",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"peer"},
	)

	// protocol messages by kind and direction (sent/received)
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lamlock_messages_total",
			Help: "total number of mutex protocol messages",
		},
		[]string{"peer", "kind", "direction"},
	)

	// peers declared crashed by the failure detector
	// suspicion is irrevocable so this only grows
	SuspicionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lamlock_suspicions_total",
			Help: "total number of peers suspected to have crashed",
		},
		[]string{"peer"},
	)

	// receive calls that timed out
	ReceiveTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lamlock_receive_timeouts_total",
			Help: "total number of receive timeouts",
		},
		[]string{"peer"},
	)

	// local request queue length
	QueueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lamlock_queue_length",
			Help: "current length of the local request queue",
		},
		[]string{"peer"},
	)

	// members this peer believes alive, self included
	// drop indicates a suspicion
	Members = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lamlock_members",
			Help: "number of members believed alive",
		},
		[]string{"peer"},
	)

	// members registered at the hub per group
	HubMembers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lamlock_hub_members",
			Help: "number of members registered in a hub group",
		},
		[]string{"group"},
	)

	// messages the hub could not deliver (unknown target, full mailbox)
	HubDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lamlock_hub_dropped_total",
			Help: "total number of messages dropped by the hub",
		},
	)

	// members whose heartbeat lease expired at the hub
	HubExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lamlock_hub_expired_total",
			Help: "total number of members expired for missing heartbeats",
		},
	)

	// service uptime - always 1 when running
	Up = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lamlock_up",
			Help: "whether the service is up (always 1 when running)",
		},
	)
)

func init() {
	Up.Set(1)
}
