package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Booking.DefaultCurrency != "Euros" || cfg.Conversation.MaxMisunderstandings != 3 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Redis.CacheTTL != 6*time.Hour || cfg.Conversation.IdleTimeout != 30*time.Minute {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if cfg.IsProduction() {
		t.Fatal("default env must not be production")
	}
	if !cfg.AI.Rules {
		t.Fatal("rule extractor should be on by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FLYBOT_HTTP_ADDR", ":9090")
	t.Setenv("FLYBOT_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("FLYBOT_BOOKING_SUPPORTED_CITIES", "Paris,London")
	t.Setenv("FLYBOT_CONVERSATION_IDLE_TIMEOUT", "5m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if len(cfg.Booking.SupportedCities) != 2 || cfg.Booking.SupportedCities[0] != "Paris" {
		t.Fatalf("cities = %v", cfg.Booking.SupportedCities)
	}
	if cfg.Conversation.IdleTimeout != 5*time.Minute {
		t.Fatalf("idle timeout = %v", cfg.Conversation.IdleTimeout)
	}
}

func TestLoadFileAndValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flybot.yaml")
	content := "env: production\nbooking:\n  default_currency: Dollars\nconversation:\n  max_misunderstandings: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsProduction() || cfg.Booking.DefaultCurrency != "Dollars" || cfg.Conversation.MaxMisunderstandings != 5 {
		t.Fatalf("unexpected file config %+v", cfg)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("env: staging\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit file")
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
