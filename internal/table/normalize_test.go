package table

import "testing"

func TestCanonicalName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Year", "year"},
		{"Annual - Min", "annual min"},
		{"Annual_Min", "annual min"},
		{"  Reporting/Year  ", "reporting year"},
		{"Production (Tonnes)", "production tonnes"},
		{"State,Name", "state name"},
		{"already canonical", "already canonical"},
	}
	for _, c := range cases {
		got := CanonicalName(c.in)
		if got != c.want {
			t.Fatalf("CanonicalName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalNameIdempotent(t *testing.T) {
	names := []string{"Annual - Min", "2016-17 - Production", "YEAR", "a__b--c", "(x)(y)"}
	for _, n := range names {
		once := CanonicalName(n)
		twice := CanonicalName(once)
		if once != twice {
			t.Fatalf("canonicalization not idempotent for %q: %q != %q", n, once, twice)
		}
	}
}

func TestNormalize(t *testing.T) {
	tbl := New([]string{"Year", "Annual - Min", "Annual - Max"}, [][]string{{"2015", "10", "30"}})
	norm, nm := Normalize(tbl)
	want := []string{"year", "annual min", "annual max"}
	for i, c := range norm.Columns {
		if c != want[i] {
			t.Fatalf("norm column %d = %q, want %q", i, c, want[i])
		}
	}
	if nm.Original("annual min") != "Annual - Min" {
		t.Fatalf("name map annual min = %q", nm.Original("annual min"))
	}
	if nm.Original("missing") != "missing" {
		t.Fatalf("unmapped canonical should fall back to itself")
	}
}

func TestNormalizeCollisionLastWins(t *testing.T) {
	tbl := New([]string{"Annual-Min", "Annual_Min"}, [][]string{{"1", "2"}})
	_, nm := Normalize(tbl)
	if got := nm.Original("annual min"); got != "Annual_Min" {
		t.Fatalf("collision winner = %q, want last-seen %q", got, "Annual_Min")
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 26.5 ", 26.5, true},
		{"1,300", 1300, true},
		{"", 0, false},
		{"NA", 0, false},
		{"n/a", 0, false},
		{"wheat", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("ParseNumber(%q) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
