package config

import (
	"errors"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("server port = %s, want 8080", cfg.ServerPort)
	}
	if cfg.AWSRegion != "ap-southeast-2" {
		t.Fatalf("region = %s, want ap-southeast-2", cfg.AWSRegion)
	}
	if cfg.EthnicityBonusRate != 0.05 {
		t.Fatalf("bonus rate = %v, want 0.05", cfg.EthnicityBonusRate)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("COMPANY_NAME", "Test Ltd")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerPort != "9090" || cfg.CompanyName != "Test Ltd" {
		t.Fatalf("env override not applied: %+v", cfg)
	}
}

func TestValidateRejectsMissingSettings(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.SenderEmail = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissingSetting) {
		t.Fatalf("expected ErrMissingSetting, got %v", err)
	}
}

func TestValidateRejectsNegativeBonusRate(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.EthnicityBonusRate = -0.1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative bonus rate must be rejected")
	}
}
