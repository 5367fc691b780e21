package otbin

import (
	"errors"
	"testing"
)

func TestShapeSizes(t *testing.T) {
	cases := []struct {
		shape string
		size  int
	}{
		{"B", 1},
		{"b", 1},
		{"H", 2},
		{"h", 2},
		{"L", 4},
		{"l", 4},
		{"2H", 4},
		{"HH", 4},
		{"12H", 24},
		{"4s", 4},
		{"s", 1},
		{"HH4s", 8},
		{"L2Hb", 9},
	}
	for _, c := range cases {
		sz, err := ShapeSize(c.shape)
		if err != nil {
			t.Errorf("shape %q: unexpected error %v", c.shape, err)
			continue
		}
		if sz != c.size {
			t.Errorf("expected shape %q to span %d bytes, got %d", c.shape, c.size, sz)
		}
	}
}

func TestShapeRepeatEquivalence(t *testing.T) {
	a, err := parseShape("2H")
	if err != nil {
		t.Fatal(err)
	}
	b, err := parseShape("HH")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("expected 2H and HH to expand identically, got %d vs %d fields",
			len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("field %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestShapeErrors(t *testing.T) {
	bad := []string{"", "2", "H3", "x", "2x", "0H", "0s", "H 2H"}
	for _, shape := range bad {
		if _, err := ShapeSize(shape); !errors.Is(err, ErrBadShape) {
			t.Errorf("expected shape %q to be rejected with ErrBadShape, got %v", shape, err)
		}
	}
}

func TestFieldRanges(t *testing.T) {
	cases := []struct {
		code     byte
		min, max int64
	}{
		{'B', 0, 255},
		{'b', -128, 127},
		{'H', 0, 65535},
		{'h', -32768, 32767},
		{'L', 0, 4294967295},
		{'l', -2147483648, 2147483647},
	}
	for _, c := range cases {
		f := field{code: c.code, size: intFieldSize(c.code)}
		min, max := fieldRange(f)
		if min != c.min || max != c.max {
			t.Errorf("field %q: expected range [%d,%d], got [%d,%d]",
				string(c.code), c.min, c.max, min, max)
		}
	}
}
