package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.GlobalLimit.Max != 100 || cfg.GlobalLimit.WindowSeconds != 60 {
		t.Errorf("GlobalLimit = %+v, want 100/60s", cfg.GlobalLimit)
	}
	if cfg.WidgetLimit.Max != 30 {
		t.Errorf("WidgetLimit.Max = %d, want 30", cfg.WidgetLimit.Max)
	}
	if cfg.DomainLimit.Max != 200 {
		t.Errorf("DomainLimit.Max = %d, want 200", cfg.DomainLimit.Max)
	}
	if cfg.MessageCap != 50 {
		t.Errorf("MessageCap = %d, want 50", cfg.MessageCap)
	}
	if cfg.MaxMessageLength != 2000 {
		t.Errorf("MaxMessageLength = %d, want 2000", cfg.MaxMessageLength)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing path uses defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Addr != ":8080" {
			t.Errorf("Addr = %q, want :8080", cfg.Addr)
		}
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chatgate.yaml")
		data := []byte("addr: \":9090\"\nwidget_limit:\n  max: 10\n  window_seconds: 30\n")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Addr != ":9090" {
			t.Errorf("Addr = %q, want :9090", cfg.Addr)
		}
		if cfg.WidgetLimit.Max != 10 || cfg.WidgetLimit.WindowSeconds != 30 {
			t.Errorf("WidgetLimit = %+v, want 10/30s", cfg.WidgetLimit)
		}
		// Untouched values keep defaults.
		if cfg.GlobalLimit.Max != 100 {
			t.Errorf("GlobalLimit.Max = %d, want default 100", cfg.GlobalLimit.Max)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("CHATGATE_ADDR", ":7070")
		t.Setenv("CHATGATE_WIDGET_LIMIT", "5:10")
		t.Setenv("CHATGATE_MESSAGE_CAP", "25")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Addr != ":7070" {
			t.Errorf("Addr = %q, want :7070", cfg.Addr)
		}
		if cfg.WidgetLimit.Max != 5 || cfg.WidgetLimit.WindowSeconds != 10 {
			t.Errorf("WidgetLimit = %+v, want 5/10s", cfg.WidgetLimit)
		}
		if cfg.MessageCap != 25 {
			t.Errorf("MessageCap = %d, want 25", cfg.MessageCap)
		}
	})

	t.Run("malformed limit override is ignored", func(t *testing.T) {
		t.Setenv("CHATGATE_GLOBAL_LIMIT", "not-a-number")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.GlobalLimit.Max != 100 {
			t.Errorf("GlobalLimit.Max = %d, want default 100", cfg.GlobalLimit.Max)
		}
	})
}
