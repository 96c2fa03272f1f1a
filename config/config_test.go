package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeFS struct {
	files map[string]bool
}

func (f *fakeFS) Exists(path string) bool { return f.files[path] }
func (f *fakeFS) LoadEnv(string) error    { return nil }

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "relayd"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "relayd", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})

	t.Run("service name propagates into logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "relayd"}
		cfg.ApplyDefaults()
		if cfg.Logging.ServiceName != "relayd" {
			t.Errorf("expected logging service name 'relayd', got %q", cfg.Logging.ServiceName)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid development", ServiceConfig{Name: "relayd", Environment: "development"}, ""},
		{"valid production", ServiceConfig{Name: "relayd", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "relayd", Environment: "qa"}, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: relayd
environment: staging
upstream:
  channel: Orders__e
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	type upstreamPart struct {
		Channel string `mapstructure:"channel"`
	}
	type testConfig struct {
		ServiceConfig `mapstructure:",squash"`
		Upstream      upstreamPart `mapstructure:"upstream"`
	}

	var cfg testConfig
	if err := Load("relayd", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "relayd" {
		t.Errorf("expected name 'relayd', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Upstream.Channel != "Orders__e" {
		t.Errorf("expected channel 'Orders__e', got %q", cfg.Upstream.Channel)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("upstream:\n  client_secret: from-file\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("UPSTREAM_CLIENT_SECRET", "from-env")

	type upstreamPart struct {
		ClientSecret string `mapstructure:"client_secret"`
	}
	type testConfig struct {
		Upstream upstreamPart `mapstructure:"upstream"`
	}

	var cfg testConfig
	if err := Load("relayd", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Upstream.ClientSecret != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Upstream.ClientSecret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg ServiceConfig
	if err := Load("relayd", &cfg, WithConfigFile("/nonexistent/config.yml")); err != nil {
		t.Fatalf("expected Load to tolerate a missing file, got %v", err)
	}
}

func TestResolverPrefersExplicitPaths(t *testing.T) {
	fs := &fakeFS{files: map[string]bool{
		"./cmd/relayd/config.yml": true,
	}}
	resolver := &Resolver{FileSystem: fs}

	files := resolver.ResolveFiles("relayd", LoaderConfig{ConfigFile: "/etc/relayd/config.yml"})
	if files.ConfigFile != "/etc/relayd/config.yml" {
		t.Errorf("explicit path should win, got %q", files.ConfigFile)
	}

	files = resolver.ResolveFiles("relayd", LoaderConfig{})
	if files.ConfigFile != "./cmd/relayd/config.yml" {
		t.Errorf("expected search to find cmd config, got %q", files.ConfigFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("UPSTREAM_CLIENT_SECRET")
	want := map[string]bool{
		"upstream_client_secret": true,
		"upstream.client.secret": true,
		"upstream.client_secret": true,
	}
	for key := range want {
		found := false
		for _, v := range got {
			if v == key {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected variant %q in %v", key, got)
		}
	}
}
