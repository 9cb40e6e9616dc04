package engine

import (
	"strings"
	"testing"
	"time"
)

func TestProgressReaderComputesRatio(t *testing.T) {
	var got []Progress
	reader := newProgressReader(10*time.Second, func(p Progress) { got = append(got, p) })
	stream := strings.Join([]string{
		"out_time_us=2500000",
		"progress=continue",
		"out_time_us=2500000",
		"out_time_ms=5000000",
		"progress=continue",
		"bogus line",
		"out_time_us=N/A",
		"progress=end",
	}, "\n")
	if err := reader.consume(strings.NewReader(stream)); err != nil {
		t.Fatalf("consume: %v", err)
	}
	want := []float64{0.25, 0.5, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %d updates, got %+v", len(want), got)
	}
	for i, p := range got {
		if !p.Known || p.Ratio != want[i] {
			t.Fatalf("update %d = %+v, want %v", i, p, want[i])
		}
	}
}

func TestProgressReaderUnknownDuration(t *testing.T) {
	var got []Progress
	reader := newProgressReader(0, func(p Progress) { got = append(got, p) })
	_ = reader.consume(strings.NewReader("out_time_us=100\nout_time_us=200\n"))
	if len(got) != 1 || got[0].Known {
		t.Fatalf("expected a single indeterminate update, got %+v", got)
	}
}

func TestProgressReaderClampsOvershoot(t *testing.T) {
	var last Progress
	reader := newProgressReader(time.Second, func(p Progress) { last = p })
	reader.line("out_time_us=3000000")
	if !last.Known || last.Ratio != 1 {
		t.Fatalf("expected clamp to 1, got %+v", last)
	}
}

func TestFractionAndPercent(t *testing.T) {
	if p := Fraction(-1); p.Ratio != 0 || !p.Known {
		t.Fatalf("negative not clamped: %+v", p)
	}
	if pct, ok := Fraction(0.5).Percent(); !ok || pct != 50 {
		t.Fatalf("unexpected percent %v %v", pct, ok)
	}
	if _, ok := Indeterminate().Percent(); ok {
		t.Fatal("indeterminate progress should not report a percent")
	}
}

func TestTailBufferKeepsLastLines(t *testing.T) {
	tail := newTailBuffer(2)
	_, _ = tail.Write([]byte("one\ntwo\n"))
	_, _ = tail.Write([]byte("thr"))
	_, _ = tail.Write([]byte("ee\nfour"))
	if got := tail.String(); got != "three\nfour" {
		t.Fatalf("unexpected tail %q", got)
	}
}
