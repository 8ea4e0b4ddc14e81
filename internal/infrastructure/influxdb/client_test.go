package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/homefleet/appliancelink/internal/infrastructure/config"
	"github.com/homefleet/appliancelink/internal/infrastructure/influxdb"
)

// fakeInflux stands in for an InfluxDB server: it answers pings and captures
// line-protocol write bodies, so tests run without a real instance.
type fakeInflux struct {
	server *httptest.Server

	mu     sync.Mutex
	lines  []string
	status int
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()
	f := &fakeInflux{status: http.StatusNoContent}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ping"):
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/write"):
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
				if line != "" {
					f.lines = append(f.lines, line)
				}
			}
			status := f.status
			f.mu.Unlock()
			w.WriteHeader(status)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeInflux) config() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           f.server.URL,
		Token:         "test-token",
		Org:           "homefleet",
		Bucket:        "appliances",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func (f *fakeInflux) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func (f *fakeInflux) failWrites() {
	f.mu.Lock()
	// 400 is non-retryable, so the client reports it instead of retrying.
	f.status = http.StatusBadRequest
	f.mu.Unlock()
}

func connectFake(t *testing.T, f *fakeInflux) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(f.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return client
}

func TestConnectDisabled(t *testing.T) {
	cfg := config.InfluxDBConfig{Enabled: false}
	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Token:   "test-token",
	}
	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnectAndHealthCheck(t *testing.T) {
	f := newFakeInflux(t)
	client := connectFake(t, f)
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
}

func TestHealthCheckAfterClose(t *testing.T) {
	f := newFakeInflux(t)
	client := connectFake(t, f)
	client.Close()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}
}

func TestWriteChannelMetric(t *testing.T) {
	f := newFakeInflux(t)
	client := connectFake(t, f)

	client.WriteChannelMetric("BOSCH-HCS01OVN1-0000000000AA", "setpoint_temperature", 176, "°C")
	client.Close() // flushes the batch

	lines := f.written()
	if len(lines) != 1 {
		t.Fatalf("got %d points, want 1: %v", len(lines), lines)
	}
	line := lines[0]
	for _, want := range []string{
		"channel_metrics",
		"ha_id=BOSCH-HCS01OVN1-0000000000AA",
		"channel=setpoint_temperature",
		"unit=°C",
		"value=176",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("point %q missing %q", line, want)
		}
	}
}

func TestWriteChannelMetricNoUnit(t *testing.T) {
	f := newFakeInflux(t)
	client := connectFake(t, f)

	client.WriteChannelMetric("BOSCH-HCS01OVN1-0000000000AA", "program_progress", 40, "")
	client.Close()

	lines := f.written()
	if len(lines) != 1 {
		t.Fatalf("got %d points, want 1: %v", len(lines), lines)
	}
	if strings.Contains(lines[0], "unit=") {
		t.Errorf("dimensionless point carries a unit tag: %q", lines[0])
	}
}

func TestWriteConnectivity(t *testing.T) {
	f := newFakeInflux(t)
	client := connectFake(t, f)

	client.WriteConnectivity("BOSCH-HCS01OVN1-0000000000AA", true)
	client.WriteConnectivity("BOSCH-HCS01OVN1-0000000000AA", false)
	client.Close()

	lines := f.written()
	if len(lines) != 2 {
		t.Fatalf("got %d points, want 2: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "connectivity") || !strings.Contains(lines[0], "connected=1i") {
		t.Errorf("connected point = %q", lines[0])
	}
	if !strings.Contains(lines[1], "connected=0i") {
		t.Errorf("disconnected point = %q", lines[1])
	}
}

func TestWriteAfterCloseIsDropped(t *testing.T) {
	f := newFakeInflux(t)
	client := connectFake(t, f)
	client.Close()

	client.WriteChannelMetric("BOSCH-HCS01OVN1-0000000000AA", "setpoint_temperature", 176, "°C")

	if lines := f.written(); len(lines) != 0 {
		t.Errorf("write after Close reached the server: %v", lines)
	}
}

func TestSetOnErrorReceivesWriteFailures(t *testing.T) {
	f := newFakeInflux(t)
	client := connectFake(t, f)

	errs := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	f.failWrites()
	client.WriteChannelMetric("BOSCH-HCS01OVN1-0000000000AA", "setpoint_temperature", 176, "°C")
	client.Close()

	select {
	case err := <-errs:
		if err == nil {
			t.Error("error callback received nil")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("write failure never reached the error callback")
	}
}
