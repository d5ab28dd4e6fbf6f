package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Errorf("default port = %q", cfg.App.Port)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("default chat model = %q", cfg.OpenAI.ChatModel)
	}
	if cfg.Triage.MatchThreshold != 0.7 {
		t.Errorf("default match threshold = %v", cfg.Triage.MatchThreshold)
	}
	if cfg.Triage.MatchCount != 3 {
		t.Errorf("default match count = %d", cfg.Triage.MatchCount)
	}
}

func TestTriageDurations(t *testing.T) {
	cfg := TriageConfig{RunTimeoutSeconds: 45, DedupTTLSeconds: 90}
	if cfg.RunTimeout() != 45*time.Second {
		t.Errorf("run timeout = %v", cfg.RunTimeout())
	}
	if cfg.DedupTTL() != 90*time.Second {
		t.Errorf("dedup ttl = %v", cfg.DedupTTL())
	}

	zero := TriageConfig{}
	if zero.RunTimeout() != 2*time.Minute {
		t.Errorf("zero run timeout = %v", zero.RunTimeout())
	}
	if zero.DedupTTL() != 10*time.Minute {
		t.Errorf("zero dedup ttl = %v", zero.DedupTTL())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRIAGE_MATCH_COUNT", "5")
	t.Setenv("OPENAI_CHAT_MODEL", "gpt-4o")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Triage.MatchCount != 5 {
		t.Errorf("match count = %d, want 5", cfg.Triage.MatchCount)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("chat model = %q", cfg.OpenAI.ChatModel)
	}
}
