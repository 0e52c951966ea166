package util

import (
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("FG_STRING", "neo4j")
	t.Setenv("FG_EMPTY", "")
	t.Setenv("FG_NUM", "1024")
	t.Setenv("FG_BAD_NUM", "lots")
	t.Setenv("FG_BOOL", "true")
	t.Setenv("FG_BAD_BOOL", "yes")
	t.Setenv("FG_FLOAT", "0.25")
	t.Setenv("FG_DURATION", "300us")

	if got := GetEnv("FG_STRING"); got != "neo4j" {
		t.Fatalf("GetEnv: got %q", got)
	}
	if got := GetEnv("FG_MISSING"); got != "" {
		t.Fatalf("GetEnv missing: got %q", got)
	}
	if got := GetEnvString("FG_EMPTY", "memory"); got != "memory" {
		t.Fatalf("GetEnvString empty: got %q", got)
	}
	if got := GetEnvInt("FG_NUM", 1); got != 1024 {
		t.Fatalf("GetEnvInt: got %d", got)
	}
	if got := GetEnvInt("FG_BAD_NUM", 7); got != 7 {
		t.Fatalf("GetEnvInt fallback: got %d", got)
	}
	if got := GetEnvFloat("FG_FLOAT", 0.5); got != 0.25 {
		t.Fatalf("GetEnvFloat: got %v", got)
	}
	if got := GetEnvFloat("FG_BAD_NUM", 0.5); got != 0.5 {
		t.Fatalf("GetEnvFloat fallback: got %v", got)
	}
	if !GetEnvBool("FG_BOOL", false) {
		t.Fatal("GetEnvBool: expected true")
	}
	if GetEnvBool("FG_BAD_BOOL", false) {
		t.Fatal("GetEnvBool: expected default for unparseable value")
	}
	if got := GetEnvDuration("FG_DURATION", time.Second); got != 300*time.Microsecond {
		t.Fatalf("GetEnvDuration: got %v", got)
	}
	if got := GetEnvDuration("FG_MISSING", time.Second); got != time.Second {
		t.Fatalf("GetEnvDuration default: got %v", got)
	}
}
