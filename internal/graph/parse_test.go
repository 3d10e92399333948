package graph

import "testing"

func TestParseDependsOn(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []depRef
	}{
		{"empty", "", nil},
		{"whitespace", "   ", nil},
		{"json array", "[3, 5]", []depRef{{id: 3}, {id: 5}}},
		{"empty json array", "[]", nil},
		{"comma separated", "1, 2,3", []depRef{{id: 1}, {id: 2}, {id: 3}}},
		{"single id", "7", []depRef{{id: 7}}},
		{"task number", "2.1.1", []depRef{{number: "2.1.1"}}},
		{"malformed json", "[3, oops]", nil},
	}

	for _, tc := range cases {
		got := parseDependsOn(tc.raw)
		if len(got) != len(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: ref %d = %v, want %v", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}

func TestDepRefString(t *testing.T) {
	if s := (depRef{id: 42}).String(); s != "42" {
		t.Errorf("expected \"42\", got %q", s)
	}
	if s := (depRef{number: "2.1.1"}).String(); s != "2.1.1" {
		t.Errorf("expected \"2.1.1\", got %q", s)
	}
}
