package tui

import "testing"

func TestCalculateScrollOffset(t *testing.T) {
	tests := []struct {
		name                   string
		cursor, offset, page   int
		want                   int
	}{
		{"visible", 3, 0, 10, 0},
		{"above window", 2, 5, 10, 2},
		{"below window", 12, 0, 10, 3},
		{"last row of window", 9, 0, 10, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := calculateScrollOffset(tc.cursor, tc.offset, tc.page); got != tc.want {
				t.Errorf("calculateScrollOffset(%d, %d, %d) = %d, want %d", tc.cursor, tc.offset, tc.page, got, tc.want)
			}
		})
	}
}

func TestNavigateList(t *testing.T) {
	tests := []struct {
		key        string
		cursor     int
		n          int
		wantCursor int
		wantOK     bool
	}{
		{"down", 0, 5, 1, true},
		{"j", 4, 5, 4, true},
		{"up", 0, 5, 0, true},
		{"k", 3, 5, 2, true},
		{"pgdown", 1, 50, 11, true},
		{"pgdown", 45, 50, 49, true},
		{"pgup", 5, 50, 0, true},
		{"G", 0, 50, 49, true},
		{"g", 30, 50, 0, true},
		{"end", 0, 0, 0, true},
		{"enter", 2, 5, 2, false},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			cursor, offset := tc.cursor, 0
			ok := navigateList(tc.key, &cursor, &offset, tc.n, 10)
			if ok != tc.wantOK {
				t.Errorf("handled = %v, want %v", ok, tc.wantOK)
			}
			if cursor != tc.wantCursor {
				t.Errorf("cursor = %d, want %d", cursor, tc.wantCursor)
			}
			if ok && (cursor < offset || cursor >= offset+10) {
				t.Errorf("cursor %d outside window at offset %d", cursor, offset)
			}
		})
	}
}
