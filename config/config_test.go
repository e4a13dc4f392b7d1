package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/license-registry/generic"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DataSourceSQLite, cfg.DataSource)
	assert.Equal(t, "ar", cfg.Locale)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)

	limits := cfg.Limits()
	assert.Equal(t, 3, limits.FullDayLicenses)
	assert.Equal(t, 4, limits.ShortLicenses)
	assert.True(t, limits.MaxHoursPerMonth.Equal(generic.Hours(12)))
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("LICENSES_DATA_SOURCE", "fixture")
	t.Setenv("LICENSES_FIXTURE_PATH", "testdata/f.json")
	t.Setenv("LICENSES_LOCALE", "en")
	t.Setenv("LICENSES_MAX_HOURS_PER_MONTH", "10.5")
	t.Setenv("LICENSES_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LICENSES_LOG_FORMAT", "json")
	t.Setenv("LICENSES_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DataSourceFixture, cfg.DataSource)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Limits().MaxHoursPerMonth.Equal(generic.Hours(10.5)))

	log := cfg.Logger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown data source", map[string]string{"LICENSES_DATA_SOURCE": "postgres"}},
		{"unknown locale", map[string]string{"LICENSES_LOCALE": "fr"}},
		{"zero limit", map[string]string{"LICENSES_FULL_DAY_LIMIT": "0"}},
		{"negative hours", map[string]string{"LICENSES_MAX_HOURS_PER_MONTH": "-1"}},
		{"bad log level", map[string]string{"LICENSES_LOG_LEVEL": "loud"}},
		{"bad log format", map[string]string{"LICENSES_LOG_FORMAT": "xml"}},
		{"empty fixture path", map[string]string{"LICENSES_DATA_SOURCE": "fixture", "LICENSES_FIXTURE_PATH": " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
