package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/pkg/config"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 120*time.Second, cfg.CFDI.ClaimTTL)
	assert.Equal(t, 30*time.Second, cfg.CFDI.StampTimeout)
	assert.True(t, cfg.CFDI.IsMock())
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestFromViper_LeeValoresComoTexto(t *testing.T) {
	v := viper.New()
	v.Set("DB_PORT", "6543")
	v.Set("DB_DRIVER", "memory")
	v.Set("DB_AUTO_MIGRATE", "true")
	v.Set("CFDI_PAC_RATE", "2.5")
	v.Set("HTTP_PORT", "no-es-numero")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 2.5, cfg.CFDI.PACRate)
	assert.Equal(t, 8080, cfg.HTTP.Port, "valor inválido cae al defecto")
}

func TestDSN_EscapaPassword(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "remisiones", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/remisiones?sslmode=disable", db.DSN())

	db.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", db.ConnectionString())
}

func TestValidate_Produccion(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	v.Set("DB_DRIVER", "memory")

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_DRIVER=memory")
	assert.Contains(t, err.Error(), "CFDI_APP_ENV")
}

func TestValidate_GCSSinBucket(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "gcs")

	_, err := config.FromViper(v)
	assert.ErrorContains(t, err, "STORAGE_GCS_BUCKET")
}

func TestValidate_TiemposDeFacturacion(t *testing.T) {
	v := viper.New()
	v.Set("CFDI_STAMP_TIMEOUT_SECONDS", "30")
	v.Set("CFDI_CLAIM_TTL_SECONDS", "30")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("REDIS_LOCK_TTL_SECONDS", "10")

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CFDI_CLAIM_TTL_SECONDS")
	assert.Contains(t, err.Error(), "REDIS_LOCK_TTL_SECONDS")
}
