package root

import (
	"strings"
	"testing"
)

func TestClosest(t *testing.T) {
	ids := []string{"morning_devotion", "caves_of_shame", "temple_of_obedience"}
	cases := map[string]string{
		"morning_devotoin":    "morning_devotion",
		"caves":               "caves_of_shame",
		"TEMPLE_OF_OBEDIENCE": "temple_of_obedience",
		"labyrinth":           "",
		"":                    "",
	}
	for in, want := range cases {
		if got := closest(in, ids); got != want {
			t.Fatalf("closest(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestUnknownErr(t *testing.T) {
	err := unknownErr("ritual", "morning_devotoin", []string{"morning_devotion"})
	if !strings.Contains(err.Error(), `did you mean "morning_devotion"`) {
		t.Fatalf("err=%v", err)
	}
	if err := unknownErr("ritual", "zzz", nil); strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("err=%v", err)
	}
}
