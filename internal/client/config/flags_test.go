package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-api", "http://127.0.0.1:8000/v2", "-relay", "http://127.0.0.1:8787", "-data", "/tmp/nl", "-log", "debug", "-timeout=3s"},
			expected: &Config{
				APIBaseURL:     "http://127.0.0.1:8000/v2",
				ReportRelayURL: "http://127.0.0.1:8787",
				DataDir:        "/tmp/nl",
				LogLevel:       "debug",
				HTTPTimeout:    3 * time.Second,
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"cmd", "-c", "nekos.json", "-env", ".env", "-log", "error"},
			expected: &Config{LogLevel: "error"},
		},
		{name: "bad duration", args: []string{"cmd", "-timeout", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cfg := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
