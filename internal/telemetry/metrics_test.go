package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEpochResolvedUpdatesCounters(t *testing.T) {
	before := testutil.ToFloat64(EpochsProcessedTotal)
	RecordEpochResolved(0.05, 3, 12.5)
	after := testutil.ToFloat64(EpochsProcessedTotal)

	if after != before+1 {
		t.Fatalf("expected EpochsProcessedTotal to increment by 1, went from %f to %f", before, after)
	}
	if got := testutil.ToFloat64(ConnectedUsers); got != 3 {
		t.Fatalf("expected ConnectedUsers gauge set to 3, got %f", got)
	}
}

func TestRecordDischargeDecisionLabelsOutcome(t *testing.T) {
	before := testutil.ToFloat64(DischargeEventsTotal.WithLabelValues("triggered"))
	RecordDischargeDecision(true)
	after := testutil.ToFloat64(DischargeEventsTotal.WithLabelValues("triggered"))

	if after != before+1 {
		t.Fatalf("expected triggered counter to increment by 1, went from %f to %f", before, after)
	}
}

func TestRecordBusMessageLabelsTopicAndOutcome(t *testing.T) {
	before := testutil.ToFloat64(BusMessagesTotal.WithLabelValues("my-topic", "published"))
	RecordBusMessage("my-topic", "published")
	after := testutil.ToFloat64(BusMessagesTotal.WithLabelValues("my-topic", "published"))

	if after != before+1 {
		t.Fatalf("expected bus message counter to increment by 1, went from %f to %f", before, after)
	}
}
