package bind

import "testing"

func TestDepsEqual(t *testing.T) {
	sameSlice := []int{1}
	cases := []struct {
		name string
		a, b []any
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil empty", nil, []any{}, true},
		{"equal ints", []any{1, 2}, []any{1, 2}, true},
		{"different ints", []any{1, 2}, []any{1, 3}, false},
		{"different length", []any{1}, []any{1, 2}, false},
		{"strings", []any{"a"}, []any{"a"}, true},
		{"mixed kinds", []any{"1"}, []any{1}, false},
		{"int vs int64", []any{1}, []any{int64(1)}, false},
		{"nil element both", []any{nil}, []any{nil}, true},
		{"nil element one side", []any{nil}, []any{1}, false},
		{"non-comparable never equal", []any{sameSlice}, []any{sameSlice}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := depsEqual(tc.a, tc.b); got != tc.want {
				t.Errorf("depsEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
