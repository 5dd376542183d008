package redilimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name: "valid",
			opts: Options{MaxRequests: 10, WindowSeconds: 60},
		},
		{
			name: "valid with hours",
			opts: Options{MaxRequests: 10, WindowSeconds: 60, WindowHours: 2},
		},
		{
			name:    "zero max requests",
			opts:    Options{MaxRequests: 0, WindowSeconds: 60},
			wantErr: true,
		},
		{
			name:    "negative max requests",
			opts:    Options{MaxRequests: -1, WindowSeconds: 60},
			wantErr: true,
		},
		{
			name:    "zero window seconds",
			opts:    Options{MaxRequests: 10, WindowSeconds: 0},
			wantErr: true,
		},
		{
			name:    "negative window seconds",
			opts:    Options{MaxRequests: 10, WindowSeconds: -5},
			wantErr: true,
		},
		{
			name:    "negative window hours",
			opts:    Options{MaxRequests: 10, WindowSeconds: 60, WindowHours: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidOptions)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestOptionsTotalSeconds(t *testing.T) {
	assert.Equal(t, 60, Options{MaxRequests: 1, WindowSeconds: 60}.TotalSeconds())
	assert.Equal(t, 3660, Options{MaxRequests: 1, WindowSeconds: 60, WindowHours: 1}.TotalSeconds())
	assert.Equal(t, 7205, Options{MaxRequests: 1, WindowSeconds: 5, WindowHours: 2}.TotalSeconds())
}

func TestOptionsDefaults(t *testing.T) {
	got := Options{}.withDefaults()
	assert.Equal(t, DefaultMaxRequests, got.MaxRequests)
	assert.Equal(t, DefaultWindowSeconds, got.WindowSeconds)
	assert.Equal(t, 0, got.WindowHours)

	// Explicit values are never overridden.
	got = Options{MaxRequests: 3, WindowSeconds: 5, WindowHours: 1}.withDefaults()
	assert.Equal(t, Options{MaxRequests: 3, WindowSeconds: 5, WindowHours: 1}, got)
}

func TestFormatKey(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "ratelimit:ip:1.2.3.4", cfg.formatKey("ip:1.2.3.4"))

	cfg.keyPrefix = "myapp"
	assert.Equal(t, "myapp:ip:1.2.3.4", cfg.formatKey("ip:1.2.3.4"))

	cfg.hashTag = true
	assert.Equal(t, "myapp:{ip:1.2.3.4}", cfg.formatKey("ip:1.2.3.4"))
}
