package policy

import "testing"

func TestAdmit(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		capacity  int
		priority  bool
		wantAdmit bool
	}{
		{
			name:      "non-priority admitted under capacity",
			count:     0,
			capacity:  1,
			priority:  false,
			wantAdmit: true,
		},
		{
			name:      "non-priority rejected at capacity",
			count:     1,
			capacity:  1,
			priority:  false,
			wantAdmit: false,
		},
		{
			name:      "non-priority rejected over capacity",
			count:     12,
			capacity:  10,
			priority:  false,
			wantAdmit: false,
		},
		{
			name:      "priority admitted on full workshop",
			count:     1,
			capacity:  1,
			priority:  true,
			wantAdmit: true,
		},
		{
			// The capacity override is deliberate policy: priority attendees
			// may exceed the declared capacity. Do not "fix" this into strict
			// enforcement.
			name:      "priority admitted even when count already exceeds capacity",
			count:     15,
			capacity:  10,
			priority:  true,
			wantAdmit: true,
		},
		{
			name:      "zero capacity never admits non-priority",
			count:     0,
			capacity:  0,
			priority:  false,
			wantAdmit: false,
		},
		{
			name:      "zero capacity still admits priority",
			count:     0,
			capacity:  0,
			priority:  true,
			wantAdmit: true,
		},
		{
			name:      "one seat left",
			count:     9,
			capacity:  10,
			priority:  false,
			wantAdmit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Admit(tt.count, tt.capacity, tt.priority); got != tt.wantAdmit {
				t.Fatalf("Admit(%d, %d, %v) = %v, want %v", tt.count, tt.capacity, tt.priority, got, tt.wantAdmit)
			}
		})
	}
}

func TestAdmitIsIdempotent(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Admit(4, 5, false); !got {
			t.Fatalf("repeated call %d changed decision", i)
		}
	}
}
