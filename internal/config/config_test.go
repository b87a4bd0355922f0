package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PlanningHour != 19 {
		t.Errorf("planning hour = %d", cfg.PlanningHour)
	}
	if cfg.Policy.Location.String() != "Asia/Bangkok" {
		t.Errorf("location = %s", cfg.Policy.Location)
	}
	if cfg.Policy.CutoffHour != 18 || cfg.Policy.FilingWindow != time.Hour {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("brokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("CUTOFF_HOUR", "17")
	t.Setenv("BUFFER_RATE", "0.25")
	t.Setenv("DISPUTE_FILING_WINDOW", "90m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("COUNT_REJECTED_DISPUTES", "true")
	t.Setenv("STORE_DRIVER", DriverMemory)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Policy.CutoffHour != 17 {
		t.Errorf("cutoff = %d", cfg.Policy.CutoffHour)
	}
	if cfg.Policy.BufferRate.String() != "0.25" {
		t.Errorf("buffer = %s", cfg.Policy.BufferRate)
	}
	if cfg.Policy.FilingWindow != 90*time.Minute {
		t.Errorf("window = %s", cfg.Policy.FilingWindow)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.KafkaBrokers)
	}
	if !cfg.Policy.CountRejectedDisputes {
		t.Error("expected rejected disputes to count")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"STORE_DRIVER":  "mongo",
		"RAW_BATCH_CAP": "0",
		"PLANNING_HOUR": "25",
		"BUFFER_RATE":   "ten",
		"TIMEZONE":      "Mars/Olympus",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%s accepted", key, value)
			}
		})
	}
}
