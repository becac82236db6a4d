package events

import (
	"context"
	"testing"

	"github.com/bankvault/bankvault/internal/logging"
)

func TestSolConversion(t *testing.T) {
	cases := map[int64]string{
		0:             "0",
		1:             "0.000000001",
		1_000_000_000: "1",
		1_500_000_000: "1.5",
		2_345:         "0.000002345",
	}
	for lamports, want := range cases {
		if got := Sol(lamports).String(); got != want {
			t.Fatalf("Sol(%d) = %s, want %s", lamports, got, want)
		}
	}
}

func TestLogPublisherNeverFails(t *testing.T) {
	p := NewLogPublisher(logging.Discard())
	if err := p.Publish(context.Background(), KindDepositRecorded, DepositRecorded{Owner: "o", Lamports: 5}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var nilPublisher *LogPublisher
	if err := nilPublisher.Publish(context.Background(), KindDepositRecorded, nil); err != nil {
		t.Fatalf("nil publisher publish: %v", err)
	}
}
