package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseReminderTimes(t *testing.T) {
	cases := []struct {
		raw     string
		want    []int
		wantErr bool
	}{
		{"30,5", []int{30, 5}, false},
		{" 60 , 15 ,", []int{60, 15}, false},
		{"30,abc", nil, true},
		{"0", nil, true},
		{"", nil, true},
	}

	for _, tc := range cases {
		got, err := ParseReminderTimes(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseReminderTimes(%q) err = %v; wantErr %v", tc.raw, err, tc.wantErr)
		}
		if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParseReminderTimes(%q) = %v; want %v", tc.raw, got, tc.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REMINDER_CHECK_SECRET", "s3cret")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("REMINDER_TIMES", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("REMINDER_CHECK_INTERVAL_SECONDS", "")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReminderCheckInterval != time.Minute {
		t.Fatalf("interval = %v; want 1m", cfg.ReminderCheckInterval)
	}
	if !reflect.DeepEqual(cfg.ReminderTimes, []int{30, 5}) {
		t.Fatalf("reminder times = %v", cfg.ReminderTimes)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("driver = %q", cfg.DatabaseDriver)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("location = %v", cfg.Location)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("REMINDER_CHECK_SECRET", "")
	t.Setenv("JWT_SECRET", "jwt")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without REMINDER_CHECK_SECRET")
	}
}
