package cache

import (
	"testing"
)

func TestDefaultEstimator(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		want      uint64
		estimated bool
	}{
		{"nil", nil, 0, true},
		{"string two bytes per char", "hello", 10, true},
		{"empty string", "", 0, true},
		{"byte slice", []byte{1, 2, 3}, 3, true},
		{"int", 42, 8, true},
		{"float", 3.14, 8, true},
		{"bool", true, 8, true},
		{"struct via json", struct {
			A string `json:"a"`
		}{A: "x"}, uint64(len(`{"a":"x"}`)), true},
		{"map via json", map[string]int{"n": 1}, uint64(len(`{"n":1}`)), true},
		{"unserializable falls back", make(chan int), FallbackEntrySize, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, estimated := DefaultEstimator(tt.value)
			if got != tt.want {
				t.Errorf("size = %d, want %d", got, tt.want)
			}
			if estimated != tt.estimated {
				t.Errorf("estimated = %t, want %t", estimated, tt.estimated)
			}
		})
	}
}

func TestCustomEstimator(t *testing.T) {
	// Every value is charged a flat 100 bytes
	flat := func(any) (uint64, bool) { return 100, true }

	s := New(Config{MaxSize: 250, Estimator: flat}, nil)

	s.Put("a", "whatever")
	s.Put("b", "whatever")
	if s.TotalSize() != 200 {
		t.Errorf("expected flat estimator to charge 200, got %d", s.TotalSize())
	}

	// Third entry exceeds 250, trims to headroom (200)
	s.Put("c", "whatever")
	if s.TotalSize() > 200 {
		t.Errorf("expected trim to 200, got %d", s.TotalSize())
	}
}
