package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramUpdatesReceivedTotal,
		telegramCommandsReceivedTotal,
		telegramRateLimitTriggeredTotal,
		mentionOutcomesTotal,
		mentionsSentTotal,
		telegramSendErrorsTotal,
		rosterMembersObservedTotal,
	)
}

var (
	telegramUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Updates received from Telegram, labeled by transport.",
		},
		[]string{"transport"}, // 'polling', 'webhook'
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming bot commands.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times a chat has been rate-limited.",
		},
	)

	mentionOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mention_outcomes_total",
			Help: "Mention command invocations, labeled by outcome.",
		},
		[]string{"outcome"}, // 'success', 'usage_error', 'fetch_error'
	)

	mentionsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mentions_sent_total",
			Help: "Total number of member mentions delivered.",
		},
	)

	telegramSendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_send_errors_total",
			Help: "Outbound messages that Telegram rejected.",
		},
	)

	rosterMembersObservedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_members_observed_total",
			Help: "Member sightings recorded into the roster.",
		},
	)
)

func IncUpdate(transport string) {
	telegramUpdatesReceivedTotal.WithLabelValues(norm(transport)).Inc()
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncMentionOutcome(outcome string) {
	mentionOutcomesTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddMentionsSent(n int) {
	mentionsSentTotal.Add(float64(n))
}

func IncSendError() {
	telegramSendErrorsTotal.Inc()
}

func AddRosterObserved(n int) {
	rosterMembersObservedTotal.Add(float64(n))
}
