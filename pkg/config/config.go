package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	CFDI    CFDIConfig
	Redis   RedisConfig
	Storage StorageConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de persistencia.
// Driver "postgres" (por defecto) o "memory" (desarrollo local sin base de datos).
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	Driver      string
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host            string
	Port            int
	BodyLimitMB     int
	ShutdownTimeout time.Duration
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CFDIConfig datos del emisor y del proveedor de timbrado (PAC).
type CFDIConfig struct {
	Env          string // "dev" = timbrado simulado; "prod" = PAC real
	IssuerRFC    string
	IssuerName   string
	IssuerRegime string // c_RegimenFiscal del emisor
	IssuerZip    string // LugarExpedicion
	Series       string
	PACURL       string
	PACUser      string
	PACToken     string
	CertPath     string // CSD en .p12 (vacío = no sellar)
	CertPassword string
	StampTimeout time.Duration
	ClaimTTL     time.Duration // vigencia del reclamo "facturando"
	PACRate      float64       // peticiones por segundo al PAC
	PACBurst     int
}

// IsMock indica si el timbrado es simulado.
func (c CFDIConfig) IsMock() bool {
	return c.Env == "dev" || c.PACURL == ""
}

// RedisConfig candado distribuido de facturación. Addr vacío = sin candado externo.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// StorageConfig almacenamiento de los XML timbrados. Driver "local" o "gcs".
type StorageConfig struct {
	Driver          string
	LocalDir        string
	GCSBucket       string
	GCSPrefix       string
	CredentialsFile string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, CFDI_ISSUER_RFC, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return FromViper(v)
}

// FromViper construye la configuración desde una instancia ya poblada (tests).
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "remisiones-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      getString(v, "DB_DRIVER", "postgres"),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "remisiones"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "remisiones-api"),
		},
		HTTP: HTTPConfig{
			Host:            getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:            getInt(v, "HTTP_PORT", 8080),
			BodyLimitMB:     getInt(v, "HTTP_BODY_LIMIT_MB", 4),
			ShutdownTimeout: seconds(getInt(v, "HTTP_SHUTDOWN_TIMEOUT_SECONDS", 10)),
		},
		CFDI: CFDIConfig{
			Env:          getString(v, "CFDI_APP_ENV", "dev"),
			IssuerRFC:    getString(v, "CFDI_ISSUER_RFC", "EKU9003173C9"),
			IssuerName:   getString(v, "CFDI_ISSUER_NAME", "ESCUELA KEMPER URGATE"),
			IssuerRegime: getString(v, "CFDI_ISSUER_REGIME", "601"),
			IssuerZip:    getString(v, "CFDI_ISSUER_ZIP", "42501"),
			Series:       getString(v, "CFDI_SERIES", "R"),
			PACURL:       getString(v, "CFDI_PAC_URL", ""),
			PACUser:      getString(v, "CFDI_PAC_USER", ""),
			PACToken:     getString(v, "CFDI_PAC_TOKEN", ""),
			CertPath:     getString(v, "CFDI_CERT_PATH", ""),
			CertPassword: getString(v, "CFDI_CERT_PASSWORD", ""),
			StampTimeout: seconds(getInt(v, "CFDI_STAMP_TIMEOUT_SECONDS", 30)),
			ClaimTTL:     seconds(getInt(v, "CFDI_CLAIM_TTL_SECONDS", 120)),
			PACRate:      getFloat(v, "CFDI_PAC_RATE", 5),
			PACBurst:     getInt(v, "CFDI_PAC_BURST", 2),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			LockTTL:  seconds(getInt(v, "REDIS_LOCK_TTL_SECONDS", 60)),
		},
		Storage: StorageConfig{
			Driver:          getString(v, "STORAGE_DRIVER", "local"),
			LocalDir:        getString(v, "STORAGE_LOCAL_DIR", "./data/cfdi"),
			GCSBucket:       getString(v, "STORAGE_GCS_BUCKET", ""),
			GCSPrefix:       getString(v, "STORAGE_GCS_PREFIX", "cfdi"),
			CredentialsFile: getString(v, "GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate revisa combinaciones que no deben llegar a producción.
func (c *Config) Validate() error {
	var errs []error
	if c.DB.Driver != "postgres" && c.DB.Driver != "memory" {
		errs = append(errs, fmt.Errorf("DB_DRIVER inválido: %q", c.DB.Driver))
	}
	if c.Storage.Driver != "local" && c.Storage.Driver != "gcs" {
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER inválido: %q", c.Storage.Driver))
	}
	if c.Storage.Driver == "gcs" && c.Storage.GCSBucket == "" {
		errs = append(errs, errors.New("STORAGE_GCS_BUCKET es obligatorio con STORAGE_DRIVER=gcs"))
	}
	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			errs = append(errs, errors.New("JWT_SECRET es obligatorio en production"))
		}
		if c.DB.Driver == "memory" {
			errs = append(errs, errors.New("DB_DRIVER=memory no se permite en production"))
		}
		if c.CFDI.IsMock() {
			errs = append(errs, errors.New("CFDI_APP_ENV=dev o CFDI_PAC_URL vacío no se permiten en production"))
		}
	}
	if c.CFDI.ClaimTTL <= c.CFDI.StampTimeout {
		errs = append(errs, errors.New("CFDI_CLAIM_TTL_SECONDS debe ser mayor que CFDI_STAMP_TIMEOUT_SECONDS"))
	}
	if c.Redis.Addr != "" && c.Redis.LockTTL <= c.CFDI.StampTimeout {
		errs = append(errs, errors.New("REDIS_LOCK_TTL_SECONDS debe ser mayor que CFDI_STAMP_TIMEOUT_SECONDS"))
	}
	return errors.Join(errs...)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	return v.GetInt(key)
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return def
		}
		return f
	}
	return v.GetFloat64(key)
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	return v.GetBool(key)
}
