package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestPlaybackConfig_Interval(t *testing.T) {
	cfg := PlaybackConfig{ProgressIntervalMS: 250}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("250ms should pass: %v", err)
	}
	if got := cfg.ProgressInterval(); got != 250*time.Millisecond {
		t.Errorf("interval = %v", got)
	}
}

func TestPlaybackConfig_IntervalBounds(t *testing.T) {
	if err := (&PlaybackConfig{ProgressIntervalMS: 10}).Validate(); err == nil {
		t.Error("10ms should fail validation")
	}
	if err := (&PlaybackConfig{ProgressIntervalMS: 60000}).Validate(); err == nil {
		t.Error("60s should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Playback.ProgressIntervalMS != 250 {
		t.Errorf("default progress interval = %d", cfg.Playback.ProgressIntervalMS)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestMediaConfig_PathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Media.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty media path should fail validation")
	}
}
