package similarity

import "testing"

func TestScoreIdentical(t *testing.T) {
	if got := Score("Iron Man", "Iron Man"); got != 1.0 {
		t.Fatalf("expected 1.0, got %f", got)
	}
}

func TestScoreNormalizedEquality(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Iron.Man.2008", "Iron Man 2008"},
		{"Me & You", "Me and You"},
		{"Sissi - Die junge Kaiserin", "Sissi Die junge Kaiserin"},
		{"Tatort: Muenchen", "Tatort Muenchen"},
	}
	for _, tt := range tests {
		if got := Score(tt.a, tt.b); got != 1.0 {
			t.Errorf("Score(%q, %q) = %f, want 1.0", tt.a, tt.b, got)
		}
	}
}

func TestScoreReorderedTokens(t *testing.T) {
	got := Score("Herr der Ringe, Der", "Der Herr der Ringe")
	if got < 0.99 {
		t.Fatalf("reordered tokens should score ~1.0, got %f", got)
	}
}

func TestScoreUnrelated(t *testing.T) {
	got := Score("Iron Man", "Avengers Endgame")
	if got > 0.3 {
		t.Fatalf("unrelated titles should score low, got %f", got)
	}
}

func TestScoreSequelIsNotIdentical(t *testing.T) {
	same := Score("Iron Man", "Iron Man")
	sequel := Score("Iron Man", "Iron Man 2")
	if sequel >= same {
		t.Fatalf("sequel must score below exact match: %f >= %f", sequel, same)
	}
}

func TestScoreEmpty(t *testing.T) {
	if got := Score("", "Iron Man"); got != 0.0 {
		t.Fatalf("empty title must score 0, got %f", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Iron.Man_2008-Test", "iron man 2008 test"},
		{"  A   B  ", "a b"},
		{"Tom & Jerry", "tom and jerry"},
		{"Spider-Man: Homecoming", "spider man homecoming"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"abc", "abc", 0},
		{"", "abc", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
