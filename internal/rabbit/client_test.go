package rabbit

import "testing"

func TestDelayMillis(t *testing.T) {
	cases := []struct {
		name    string
		seconds int64
		want    int64
	}{
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"one minute", 60, 60_000},
		// A pass for an event thirty days out must not wrap into a
		// negative header and fire immediately.
		{"thirty days", 30 * 24 * 3600, 2_592_000_000},
		{"sixty days capped", 60 * 24 * 3600, maxDelayMillis},
		{"just under the cap", maxDelayMillis / 1000, (maxDelayMillis / 1000) * 1000},
		{"multiplication overflow", int64(1) << 62, maxDelayMillis},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := delayMillis(c.seconds)
			if got != c.want {
				t.Fatalf("delayMillis(%d) = %d, want %d", c.seconds, got, c.want)
			}
			if got < 0 {
				t.Fatalf("delayMillis(%d) = %d, negative delays deliver immediately", c.seconds, got)
			}
		})
	}
}
