package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Schedule.CacheTTL)
	assert.False(t, cfg.Schedule.CacheEnabled)
	assert.Equal(t, 12, cfg.Fees.MaxInstallments)
	assert.Equal(t, "INR", cfg.Fees.Currency)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SCHEDULE_CACHE_TTL", "bogus")
	v.Set("FEE_MAX_INSTALLMENTS", 40)
	v.Set("FEE_CURRENCY", "usd")
	v.Set("ALLOWED_ORIGINS", " https://admin.example.com, ,https://staff.example.com ")

	cfg := fromViper(v)
	assert.Equal(t, 5*time.Minute, cfg.Schedule.CacheTTL)
	assert.Equal(t, 12, cfg.Fees.MaxInstallments)
	assert.Equal(t, "USD", cfg.Fees.Currency)
	assert.Equal(t, []string{"https://admin.example.com", "https://staff.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("ninety", time.Minute))
}
