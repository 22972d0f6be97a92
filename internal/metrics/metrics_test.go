package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrementPerLabel(t *testing.T) {
	before := testutil.ToFloat64(SignIns.WithLabelValues("google", OutcomeDenied))
	SignIns.WithLabelValues("google", OutcomeDenied).Inc()

	if got := testutil.ToFloat64(SignIns.WithLabelValues("google", OutcomeDenied)); got != before+1 {
		t.Errorf("Expected %v, got %v", before+1, got)
	}
}

func TestCountersLint(t *testing.T) {
	t.Parallel()

	collectors := map[string]prometheus.Collector{
		"session_reads":     SessionReads,
		"token_enrichments": TokenEnrichments,
		"sign_ins":          SignIns,
	}
	for name, c := range collectors {
		problems, err := testutil.CollectAndLint(c)
		if err != nil {
			t.Fatalf("%s: lint error: %v", name, err)
		}
		for _, p := range problems {
			t.Errorf("%s: %s: %s", name, p.Metric, p.Text)
		}
	}
}
