package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Pretty {
		t.Errorf("DefaultConfig() = %+v, want info level and Pretty off", cfg)
	}
}

func TestSetupWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: "debug", Output: &buf})
	defer Setup(DefaultConfig())

	log.Info().Str("k", "v").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"k":"v"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("Unexpected log output: %s", out)
	}
}

func TestSetupInvalidLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: "nonsense", Output: &buf})
	defer Setup(DefaultConfig())

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("GlobalLevel() = %v, want info fallback", zerolog.GlobalLevel())
	}
}
