package ui

import "testing"

func TestLabel(t *testing.T) {
	cases := map[string]string{
		"temple_of_obedience": "Temple Of Obedience",
		"weekly":              "Weekly",
		" side-quest ":        "Side Quest",
	}
	for in, want := range cases {
		if got := Label(in); got != want {
			t.Fatalf("Label(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(5, 10, 10); got != "[#####-----]" {
		t.Fatalf("half bar=%q", got)
	}
	if got := ProgressBar(50, 10, 4); got != "[####]" {
		t.Fatalf("overfull bar=%q", got)
	}
	if got := ProgressBar(-1, 0, 1); got != "[---]" {
		t.Fatalf("degenerate bar=%q", got)
	}
}
