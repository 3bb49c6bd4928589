package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.SlotLength != 30*time.Minute || cfg.GuestPolicy != "always_new" || !cfg.MaskForbidden {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SLOT_LENGTH", "1h")
	t.Setenv("GUEST_POLICY", "reuse_by_name")
	t.Setenv("MASK_FORBIDDEN", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SlotLength != time.Hour || cfg.GuestPolicy != "reuse_by_name" || cfg.MaskForbidden || len(cfg.CORSOrigins) != 2 {
		t.Fatalf("overrides not applied %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {"JWT_SECRET": ""},
		"bad policy":     {"JWT_SECRET": "x", "GUEST_POLICY": "sometimes"},
		"zero slot":      {"JWT_SECRET": "x", "SLOT_LENGTH": "0s"},
		"bad duration":   {"JWT_SECRET": "x", "CACHE_TTL": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("want error")
			}
		})
	}
}
