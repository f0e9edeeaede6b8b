package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.HTTPAddr != ":3000" || cfg.Auth.Secret != DefaultSecret {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if time.Duration(cfg.Auth.AccessTTL) != time.Hour || time.Duration(cfg.Auth.RefreshTTL) != 7*24*time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	}
	if len(cfg.Users) != 5 || len(cfg.Clients) != 3 {
		t.Fatalf("unexpected seeds: %d users, %d clients", len(cfg.Users), len(cfg.Clients))
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, envMap(map[string]string{
		"PORT":                    "8081",
		"JWT_SECRET":              "s3cret",
		"NEWCON_GRACE_PERIOD":     "2d",
		"NEWCON_LEDGER_RETENTION": "90d",
		"NEWCON_ACCESS_TTL":       "15m",
		"NEWCON_REVOCATION":       "false",
		"NEWCON_LEDGER_BACKEND":   "redis",
		"REDIS_URL":               "redis://localhost:6379/0",
		"NEWCON_CORS_ORIGINS":     "http://a.test, http://b.test",
		"NEWCON_MAX_BODY_BYTES":   "2048",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8081" || cfg.Auth.Secret != "s3cret" || cfg.Auth.Revocation {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if time.Duration(cfg.Ledger.GracePeriod) != 48*time.Hour || time.Duration(cfg.Ledger.Retention) != 90*24*time.Hour {
		t.Fatalf("durations not applied: %v %v", cfg.Ledger.GracePeriod, cfg.Ledger.Retention)
	}
	if time.Duration(cfg.Auth.AccessTTL) != 15*time.Minute {
		t.Fatalf("access ttl: %v", cfg.Auth.AccessTTL)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors: %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.HTTP.MaxBodyBytes != 2048 {
		t.Fatalf("max body: %d", cfg.HTTP.MaxBodyBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, envMap(map[string]string{
		"NEWCON_GRACE_PERIOD": "soon",
		"NEWCON_RATE_BURST":   "many",
	}))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "NEWCON_GRACE_PERIOD") || !strings.Contains(err.Error(), "NEWCON_RATE_BURST") {
		t.Fatalf("error should name both keys: %v", err)
	}
}

func TestValidateBackends(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Backend = BackendPostgres
	if err := cfg.Validate(); err == nil {
		t.Fatal("postgres without DSN should fail")
	}
	cfg.Ledger.PostgresDSN = "postgres://localhost/newcon"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	cfg.Ledger.Backend = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newcon.yaml")
	doc := `
http_addr: ":4000"
auth:
  issuer: custom-issuer
  refresh_ttl: 1d
ledger:
  grace_period: 720h
users:
  - id: 9
    cod_usuario: 99
    usuario: Tester
    email: tester@example.com
    password: pw
    status: Ativo
clients:
  - cgc_cpf_cliente: "11122233344"
    nome: Fulano
    valor_renda_mensal: 1000.5
    pessoa: F
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":4000" || cfg.Auth.Issuer != "custom-issuer" {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if time.Duration(cfg.Auth.RefreshTTL) != 24*time.Hour || time.Duration(cfg.Ledger.GracePeriod) != 720*time.Hour {
		t.Fatalf("durations: %v %v", cfg.Auth.RefreshTTL, cfg.Ledger.GracePeriod)
	}
	if len(cfg.Users) != 1 || cfg.Users[0].LoginCode != 99 || cfg.Users[0].Secret != "pw" {
		t.Fatalf("users: %+v", cfg.Users)
	}
	if len(cfg.Clients) != 1 || cfg.Clients[0].MonthlyIncome != 1000.5 {
		t.Fatalf("clients: %+v", cfg.Clients)
	}
	if cfg.Auth.Secret != DefaultSecret {
		t.Fatal("unset yaml keys must keep defaults")
	}

	if err := loadFile(filepath.Join(dir, "missing.yaml"), &cfg); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEWCON_CONFIG", "")
	t.Setenv("PORT", "3100")
	t.Setenv("NEWCON_LEDGER_BACKEND", "memory")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":3100" {
		t.Fatalf("addr: %s", cfg.HTTPAddr)
	}
}
