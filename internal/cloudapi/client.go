package cloudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/homefleet/appliancelink/internal/appliance"
	"github.com/homefleet/appliancelink/internal/infrastructure/config"
)

// contentType is the vendor media type the appliance cloud API speaks.
const contentType = "application/vnd.bsh.sdk.v1+json"

// maxErrorBody caps how much of an error response body is read for
// diagnostics.
const maxErrorBody = 4096

// Client talks to the appliance cloud REST API with a pre-issued bearer
// token. It implements appliance.Client plus the listing and event stream
// endpoints the service wiring needs.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	language string

	// retryDelay is the pause between event stream reconnects.
	retryDelay time.Duration

	// logger for request diagnostics (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger is a minimal logging interface to avoid circular dependencies.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New creates a cloud API client from configuration.
//
// The request timeout applies to every REST call. The event stream uses
// its own transport without a timeout; cancel its context to stop it.
func New(cfg config.CloudConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := time.Duration(cfg.EventRetryDelay) * time.Second
	if retry <= 0 {
		retry = 5 * time.Second
	}

	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		language:   cfg.Language,
		retryDelay: retry,
	}
}

// SetLogger sets a logger for request diagnostics.
// Safe to call concurrently. Pass nil to disable logging.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// =============================================================================
// Wire envelopes
// =============================================================================

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type listingPayload struct {
	HomeAppliances []appliance.Appliance `json:"homeappliances"`
}

type statusPayload struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	Unit  string          `json:"unit"`
}

type optionPayload struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	Unit  string          `json:"unit,omitempty"`
}

type programPayload struct {
	Key     string          `json:"key"`
	Options []optionPayload `json:"options,omitempty"`
}

// rawValue normalises a JSON scalar (string, number or bool) to the string
// representation the session layer works with.
func rawValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// rawInt extracts an integer from a JSON scalar, truncating floats.
// The second result is false for non-numeric values.
func rawInt(raw json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

// encodeValue renders an option value for the wire. asNumber controls
// whether the value is sent as a JSON number or a JSON string; numeric
// options (temperatures, durations) go out as numbers.
func encodeValue(value string, asNumber bool) json.RawMessage {
	if asNumber {
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return json.RawMessage(value)
		}
	}
	out, _ := json.Marshal(value)
	return out
}

// =============================================================================
// HTTP plumbing
// =============================================================================

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrCommunication, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", contentType)
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// do executes a request and maps HTTP failures onto the package sentinels.
// The caller owns the response body on success.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrCommunication, req.Method, req.URL.Path, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrAuthorization, req.Method, req.URL.Path, resp.StatusCode)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &statusError{
			method: req.Method,
			path:   req.URL.Path,
			code:   resp.StatusCode,
			body:   string(detail),
		}
	}
}

// statusError carries the HTTP status for callers that need to
// distinguish "no program" 404s from real failures.
type statusError struct {
	method string
	path   string
	code   int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("cloudapi: communication failed: %s %s: status %d: %s", e.method, e.path, e.code, e.body)
}

func (e *statusError) Is(target error) bool {
	return target == ErrCommunication
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrCommunication, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// =============================================================================
// Listing
// =============================================================================

// ListAppliances returns the metadata for every appliance paired with the
// cloud account, supported or not. The caller filters by kind.
func (c *Client) ListAppliances(ctx context.Context) ([]appliance.Appliance, error) {
	var env dataEnvelope
	if err := c.getJSON(ctx, "/api/homeappliances", &env); err != nil {
		return nil, err
	}

	var listing listingPayload
	if err := json.Unmarshal(env.Data, &listing); err != nil {
		return nil, fmt.Errorf("%w: decoding appliance listing: %w", ErrCommunication, err)
	}
	return listing.HomeAppliances, nil
}

// =============================================================================
// appliance.Client implementation
// =============================================================================

// GetStatus reads a status value such as the operation state or door state.
func (c *Client) GetStatus(ctx context.Context, haID, key string) (appliance.Status, error) {
	return c.getDatum(ctx, fmt.Sprintf("/api/homeappliances/%s/status/%s", haID, key))
}

// GetSetting reads a setting value such as the power state.
func (c *Client) GetSetting(ctx context.Context, haID, key string) (appliance.Status, error) {
	return c.getDatum(ctx, fmt.Sprintf("/api/homeappliances/%s/settings/%s", haID, key))
}

func (c *Client) getDatum(ctx context.Context, path string) (appliance.Status, error) {
	var env dataEnvelope
	if err := c.getJSON(ctx, path, &env); err != nil {
		return appliance.Status{}, err
	}

	var payload statusPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return appliance.Status{}, fmt.Errorf("%w: decoding %s: %w", ErrCommunication, path, err)
	}

	return appliance.Status{
		Key:   payload.Key,
		Value: rawValue(payload.Value),
		Unit:  payload.Unit,
	}, nil
}

// GetSelectedProgram returns the configured-but-not-running program.
// A 404 means no program is selected, which is reported via the bool
// result rather than an error.
func (c *Client) GetSelectedProgram(ctx context.Context, haID string) (appliance.Program, bool, error) {
	return c.getProgram(ctx, fmt.Sprintf("/api/homeappliances/%s/programs/selected", haID))
}

// GetActiveProgram returns the currently executing program, if any.
func (c *Client) GetActiveProgram(ctx context.Context, haID string) (appliance.Program, bool, error) {
	return c.getProgram(ctx, fmt.Sprintf("/api/homeappliances/%s/programs/active", haID))
}

func (c *Client) getProgram(ctx context.Context, path string) (appliance.Program, bool, error) {
	var env dataEnvelope
	err := c.getJSON(ctx, path, &env)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return appliance.Program{}, false, nil
		}
		return appliance.Program{}, false, err
	}

	var payload programPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return appliance.Program{}, false, fmt.Errorf("%w: decoding %s: %w", ErrCommunication, path, err)
	}

	program := appliance.Program{Key: payload.Key}
	for _, opt := range payload.Options {
		value, ok := rawInt(opt.Value)
		if !ok {
			continue // non-numeric options carry no channel semantics
		}
		program.Options = append(program.Options, appliance.Option{
			Key:   opt.Key,
			Value: value,
			Unit:  opt.Unit,
		})
	}
	return program, true, nil
}

// StartProgram starts the given program on the appliance.
func (c *Client) StartProgram(ctx context.Context, haID, programKey string) error {
	body, err := json.Marshal(dataBody{Data: programPayload{Key: programKey}})
	if err != nil {
		return fmt.Errorf("%w: encoding program: %w", ErrCommunication, err)
	}
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/api/homeappliances/%s/programs/active", haID), body)
}

// StopProgram aborts the active program.
func (c *Client) StopProgram(ctx context.Context, haID string) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/homeappliances/%s/programs/active", haID), nil)
}

// SetSelectedProgram configures a program without starting it.
func (c *Client) SetSelectedProgram(ctx context.Context, haID, programKey string) error {
	body, err := json.Marshal(dataBody{Data: programPayload{Key: programKey}})
	if err != nil {
		return fmt.Errorf("%w: encoding program: %w", ErrCommunication, err)
	}
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/api/homeappliances/%s/programs/selected", haID), body)
}

// SetPowerState switches the appliance power setting.
func (c *Client) SetPowerState(ctx context.Context, haID, target string) error {
	payload := optionPayload{
		Key:   appliance.KeyPowerState,
		Value: encodeValue(target, false),
	}
	body, err := json.Marshal(dataBody{Data: payload})
	if err != nil {
		return fmt.Errorf("%w: encoding power state: %w", ErrCommunication, err)
	}
	path := fmt.Sprintf("/api/homeappliances/%s/settings/%s", haID, appliance.KeyPowerState)
	return c.send(ctx, http.MethodPut, path, body)
}

// SetProgramOptions writes one program option.
//
// asNumber (the commit flag of the session layer) selects JSON number
// encoding for the value; applyLive targets the active program slot so a
// running program picks up the change immediately.
func (c *Client) SetProgramOptions(ctx context.Context, haID, optionKey, value, unit string, asNumber, applyLive bool) error {
	payload := optionPayload{
		Key:   optionKey,
		Value: encodeValue(value, asNumber),
		Unit:  unit,
	}
	body, err := json.Marshal(dataBody{Data: payload})
	if err != nil {
		return fmt.Errorf("%w: encoding option: %w", ErrCommunication, err)
	}

	slot := "selected"
	if applyLive {
		slot = "active"
	}
	path := fmt.Sprintf("/api/homeappliances/%s/programs/%s/options/%s", haID, slot, optionKey)
	return c.send(ctx, http.MethodPut, path, body)
}

// dataBody is the outbound counterpart of dataEnvelope.
type dataBody struct {
	Data any `json:"data"`
}
