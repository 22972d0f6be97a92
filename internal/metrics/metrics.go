package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeAnonymous     = "anonymous"
	OutcomeInvalid       = "invalid"
	OutcomeError         = "error"
	OutcomeMatched       = "matched"
	OutcomeUnmatched     = "unmatched"
	OutcomeSuccess       = "success"
	OutcomeDenied        = "denied"
)

var (
	// SessionReads counts session resolutions by outcome
	SessionReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizmify",
		Subsystem: "auth",
		Name:      "session_reads_total",
		Help:      "Session resolutions by outcome.",
	}, []string{"outcome"})

	// TokenEnrichments counts token-to-user reconciliations by outcome
	TokenEnrichments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizmify",
		Subsystem: "auth",
		Name:      "token_enrichments_total",
		Help:      "Token reconciliations against the user store by outcome.",
	}, []string{"outcome"})

	// SignIns counts completed OAuth callbacks by provider and outcome
	SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizmify",
		Subsystem: "auth",
		Name:      "sign_ins_total",
		Help:      "OAuth sign-in callbacks by provider and outcome.",
	}, []string{"provider", "outcome"})
)
