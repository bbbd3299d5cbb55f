package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-voice-chat/internal/domain"
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

var (
	// providerCalls counts outbound provider calls by provider, op
	// (complete|translate|transcribe) and outcome.
	providerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of calls to completion, translation and transcription providers.",
		},
		[]string{"provider", "op", "outcome"},
	)

	// providerLat records provider round-trip time. Completions can take tens
	// of seconds, hence the wide buckets.
	providerLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of provider calls in seconds.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "op"},
	)

	// turns counts completed turns by source (chat|voice|replay).
	turns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of completed chat turns.",
		},
		[]string{"source"},
	)

	// deviceBusy counts /voice requests rejected because the microphone was held.
	deviceBusy = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "speech_device_busy_total",
			Help: "Total number of voice captures rejected because the audio device was busy.",
		},
	)
)

func init() {
	prometheus.MustRegister(providerCalls, providerLat, turns, deviceBusy)
}

// ObserveProviderCall records one provider round-trip that started at start.
func ObserveProviderCall(provider, op string, start time.Time, err error) {
	providerCalls.WithLabelValues(provider, op, outcomeOf(err)).Inc()
	providerLat.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}

// IncTurn counts a completed turn.
func IncTurn(source string) { turns.WithLabelValues(source).Inc() }

// IncDeviceBusy counts a rejected capture.
func IncDeviceBusy() { deviceBusy.Inc() }

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.Timeout() {
		return OutcomeTimeout
	}
	return OutcomeError
}
