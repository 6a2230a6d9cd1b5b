package timeago

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"sub-second", 300 * time.Millisecond, "just now"},
		{"one second", time.Second, "1 second ago"},
		{"forty five seconds", 45 * time.Second, "45 seconds ago"},
		{"ninety seconds rounds to minute", 90 * time.Second, "1 minute ago"},
		{"two minutes", 2 * time.Minute, "2 minutes ago"},
		{"one hour", time.Hour, "1 hour ago"},
		{"ninety minutes stays hours", 90 * time.Minute, "1 hour ago"},
		{"five hours", 5 * time.Hour, "5 hours ago"},
		{"twenty five hours is a day", 25 * time.Hour, "1 day ago"},
		{"three days", 72 * time.Hour, "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(now.Add(-tt.ago), now)
			if got != tt.want {
				t.Errorf("Format(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}

func TestFormatFutureTimestamp(t *testing.T) {
	now := time.Now()
	if got := Format(now.Add(time.Minute), now); got != "just now" {
		t.Errorf("future timestamp = %q, want %q", got, "just now")
	}
}
