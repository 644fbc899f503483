package listener

import "testing"

func TestProfilePorts(t *testing.T) {
	if FMC650.Port != 6500 {
		t.Fatalf("want 6500, got %d", FMC650.Port)
	}
	if FMC234.Port != 2340 {
		t.Fatalf("want 2340, got %d", FMC234.Port)
	}
}

func TestProfileTemperaturePairCounts(t *testing.T) {
	if got := len(FMC650.TemperaturePairs); got != 6 {
		t.Fatalf("FMC-650: want 6 pairs, got %d", got)
	}
	if got := len(FMC234.TemperaturePairs); got != 4 {
		t.Fatalf("FMC-234: want 4 pairs, got %d", got)
	}
}
