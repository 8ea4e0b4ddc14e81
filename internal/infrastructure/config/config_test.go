package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
site:
  id: "test-site"
cloud:
  base_url: "https://api.example.com"
  token: "test-token"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.Cloud.BaseURL != "https://api.example.com" {
		t.Errorf("Cloud.BaseURL = %q, want %q", cfg.Cloud.BaseURL, "https://api.example.com")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
cloud:
  token: "test-token"
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	// validCloud satisfies the mandatory cloud section
	validCloud := CloudConfig{
		BaseURL:        "https://api.example.com",
		Token:          "test-token",
		RequestTimeout: 30,
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Cloud:    validCloud,
				Database: DatabaseConfig{Path: "/data/appliancelink.db"},
				MQTT:     MQTTConfig{QoS: 1},
				Polling:  PollingConfig{Interval: 120},
			},
			wantErr: false,
		},
		{
			name: "missing site ID",
			config: &Config{
				Site:     SiteConfig{ID: ""},
				Cloud:    validCloud,
				Database: DatabaseConfig{Path: "/data/appliancelink.db"},
				MQTT:     MQTTConfig{QoS: 1},
				Polling:  PollingConfig{Interval: 120},
			},
			wantErr: true,
		},
		{
			name: "missing cloud token",
			config: &Config{
				Site: SiteConfig{ID: "site-001"},
				Cloud: CloudConfig{
					BaseURL:        "https://api.example.com",
					RequestTimeout: 30,
				},
				Database: DatabaseConfig{Path: "/data/appliancelink.db"},
				MQTT:     MQTTConfig{QoS: 1},
				Polling:  PollingConfig{Interval: 120},
			},
			wantErr: true,
		},
		{
			name: "missing cloud base URL",
			config: &Config{
				Site: SiteConfig{ID: "site-001"},
				Cloud: CloudConfig{
					Token:          "test-token",
					RequestTimeout: 30,
				},
				Database: DatabaseConfig{Path: "/data/appliancelink.db"},
				MQTT:     MQTTConfig{QoS: 1},
				Polling:  PollingConfig{Interval: 120},
			},
			wantErr: true,
		},
		{
			name: "missing database path",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Cloud:    validCloud,
				Database: DatabaseConfig{Path: ""},
				MQTT:     MQTTConfig{QoS: 1},
				Polling:  PollingConfig{Interval: 120},
			},
			wantErr: true,
		},
		{
			name: "invalid QoS",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Cloud:    validCloud,
				Database: DatabaseConfig{Path: "/data/appliancelink.db"},
				MQTT:     MQTTConfig{QoS: 3},
				Polling:  PollingConfig{Interval: 120},
			},
			wantErr: true,
		},
		{
			name: "invalid polling interval",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Cloud:    validCloud,
				Database: DatabaseConfig{Path: "/data/appliancelink.db"},
				MQTT:     MQTTConfig{QoS: 1},
				Polling:  PollingConfig{Interval: 0},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetDurations(t *testing.T) {
	cfg := &Config{
		Cloud: CloudConfig{
			RequestTimeout:  30,
			EventRetryDelay: 5,
		},
		Polling: PollingConfig{Interval: 120},
	}

	if got := cfg.GetRequestTimeout().Seconds(); got != 30 {
		t.Errorf("GetRequestTimeout() = %v, want 30", got)
	}

	if got := cfg.GetEventRetryDelay().Seconds(); got != 5 {
		t.Errorf("GetEventRetryDelay() = %v, want 5", got)
	}

	if got := cfg.GetPollInterval().Seconds(); got != 120 {
		t.Errorf("GetPollInterval() = %v, want 120", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("APPLIANCELINK_CLOUD_BASE_URL", "https://simulator.example.com")
	t.Setenv("APPLIANCELINK_CLOUD_TOKEN", "env-token")
	t.Setenv("APPLIANCELINK_DATABASE_PATH", "/custom/path.db")
	t.Setenv("APPLIANCELINK_MQTT_HOST", "mqtt.example.com")
	t.Setenv("APPLIANCELINK_MQTT_USERNAME", "testuser")
	t.Setenv("APPLIANCELINK_MQTT_PASSWORD", "testpass")
	t.Setenv("APPLIANCELINK_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Cloud.BaseURL != "https://simulator.example.com" {
		t.Errorf("Cloud.BaseURL = %q, want %q", cfg.Cloud.BaseURL, "https://simulator.example.com")
	}

	if cfg.Cloud.Token != "env-token" {
		t.Errorf("Cloud.Token = %q, want %q", cfg.Cloud.Token, "env-token")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.Polling.Interval != 120 {
		t.Errorf("defaultConfig Polling.Interval = %d, want 120", cfg.Polling.Interval)
	}
}
