package queryutil

import (
	"reflect"
	"testing"
)

func TestCleanTransliteration(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Straße des Grauens", "Strasse des Grauens"},
		{"Æon Flux", "AEon Flux"},
		{"Amélie", "Amelie"},
		{"Løvens hule", "Lovens hule"},
		{"Łódź", "Lodz"},
		{"Spider-Man", "Spider-Man"},
		{"Ocean's Eleven", "Ocean's Eleven"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanStripsColons(t *testing.T) {
	if got := Clean("Mission: Impossible"); got != "Mission Impossible" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"Straße: des Grauens",
		"Mission: Impossible — Fallout",
		"Der   Bergdoktor",
		"Æon Flux",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestBuildColonFallback(t *testing.T) {
	got := Build("Mission: Impossible")
	want := []string{"Mission Impossible", "Mission"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildNoColon(t *testing.T) {
	got := Build("Iron Man")
	want := []string{"Iron Man"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildDeduplicates(t *testing.T) {
	// Cleaned full title equals the pre-colon fallback once the suffix folds away.
	got := Build("Tatort:")
	want := []string{"Tatort"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildEmpty(t *testing.T) {
	if got := Build("   "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
