package ocr

import (
	"reflect"
	"testing"
)

func TestNormalizeLine(t *testing.T) {
	cases := map[string]string{
		"  plain text  ":      "plain text",
		"ｆｕｌｌｗｉｄｔｈ":           "fullwidth",
		"ﬁle":                 "file",
		"bell\a inside":       "bell inside",
		"tab\tseparated":      "tab separated",
		"தமிழ் உரை":           "தமிழ் உரை",
	}
	for in, want := range cases {
		if got := NormalizeLine(in); got != want {
			t.Fatalf("NormalizeLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeLinesDropsBlanks(t *testing.T) {
	got := NormalizeLines([]string{"first", "  ", "\x00", "second"})
	want := []string{"first", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
