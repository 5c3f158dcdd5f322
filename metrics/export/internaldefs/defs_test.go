package internaldefs

import (
	"testing"

	"github.com/MrEthical07/sessionauth"
)

func TestCounterDefsUnique(t *testing.T) {
	ids := map[sessionauth.MetricID]bool{}
	names := map[string]bool{}
	for _, def := range CounterDefs {
		if ids[def.ID] || names[def.Name] {
			t.Fatalf("duplicate counter definition %+v", def)
		}
		ids[def.ID] = true
		names[def.Name] = true
	}
}

func TestBoundSuffixes(t *testing.T) {
	got := BoundSuffixes()
	want := []string{"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf"}
	if len(got) != len(want) {
		t.Fatalf("expected %d suffixes, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("suffix %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCumulativeBuckets(t *testing.T) {
	cum := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	if cum[0] != 1 || cum[2] != 6 || cum[BucketCount-1] != 6 {
		t.Fatalf("unexpected cumulative buckets %v", cum)
	}
}
