package table

import "testing"

func TestHead(t *testing.T) {
	tbl := New([]string{"a", "b"}, [][]string{
		{"1", "x"},
		{"2", "y"},
		{"3", "z"},
	})
	head := tbl.Head(2)
	if len(head) != 2 {
		t.Fatalf("len = %d, want 2", len(head))
	}
	if head[0]["a"] != "1" || head[1]["b"] != "y" {
		t.Fatalf("head = %+v", head)
	}
	if got := tbl.Head(10); len(got) != 3 {
		t.Fatalf("oversized n: len = %d, want 3", len(got))
	}
}

func TestMissing(t *testing.T) {
	for _, s := range []string{"", "   ", "NA", "n/a", "NaN", "null", "-"} {
		if !Missing(s) {
			t.Fatalf("Missing(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "Wheat", "26.5"} {
		if Missing(s) {
			t.Fatalf("Missing(%q) = true, want false", s)
		}
	}
}

func TestColumn(t *testing.T) {
	tbl := New([]string{"crop", "v"}, [][]string{{"Wheat", "1"}, {"Rice", "2"}})
	got, ok := tbl.Column("crop")
	if !ok || len(got) != 2 || got[1] != "Rice" {
		t.Fatalf("Column = %v, %v", got, ok)
	}
	if _, ok := tbl.Column("nope"); ok {
		t.Fatal("expected missing column")
	}
}

func TestNumericColumn(t *testing.T) {
	tbl := New([]string{"v"}, [][]string{{"1,300"}, {"NA"}, {"2.5"}, {"oops"}})
	got := tbl.NumericColumn("v")
	if len(got) != 2 || got[0] != 1300 || got[1] != 2.5 {
		t.Fatalf("NumericColumn = %v", got)
	}
}
