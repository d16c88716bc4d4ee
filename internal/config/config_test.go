package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/analyzer"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 2*time.Minute, cfg.GameLockTTL)
	assert.Equal(t, 2*time.Second, cfg.JobPollInterval)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CorsOrigins)
	assert.Equal(t, analyzer.SameClipGain, cfg.AnalyzerOptions().FirstDown)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("FIRST_DOWN_POLICY", "next_down_reset")
	v.Set("PLAYER_WORKERS", 3)
	v.Set("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := decode(v)
	require.NoError(t, err)
	assert.Equal(t, analyzer.NextDownReset, cfg.AnalyzerOptions().FirstDown)
	assert.Equal(t, 3, cfg.PlayerWorkers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CorsOrigins)
}

func TestRejectsBadValues(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("FIRST_DOWN_POLICY", "whenever")
	_, err := decode(v)
	assert.Error(t, err)

	v = viper.New()
	setDefaults(v)
	v.Set("PLAYER_WORKERS", 0)
	_, err = decode(v)
	assert.Error(t, err)
}
