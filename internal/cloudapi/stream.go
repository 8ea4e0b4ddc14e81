package cloudapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/homefleet/appliancelink/internal/appliance"
)

// EventFunc receives one decoded push event. Called from the stream
// goroutine; implementations should return quickly.
type EventFunc func(ev appliance.Event)

// sseItem is one entry of a STATUS/EVENT/NOTIFY data payload.
type sseItem struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	Unit  string          `json:"unit"`
}

// ssePayload is the data document attached to an appliance push event.
type ssePayload struct {
	Items []sseItem `json:"items"`
}

// RetryDelay returns the configured pause between stream reconnects.
func (c *Client) RetryDelay() time.Duration {
	return c.retryDelay
}

// StreamEvents opens the server-sent-event stream for one appliance and
// invokes fn for every decoded event until the context is cancelled or the
// server drops the connection.
//
// Keep-alive frames are consumed silently. CONNECTED and DISCONNECTED
// frames are forwarded as events with the connectivity pseudo keys;
// STATUS, EVENT and NOTIFY frames are unpacked into one event per item.
//
// Returns ctx.Err() on cancellation, ErrStreamClosed when the server ends
// the stream, or a wrapped ErrCommunication/ErrAuthorization otherwise.
// Callers reconnect after RetryDelay().
func (c *Client) StreamEvents(ctx context.Context, haID string, fn EventFunc) error {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/homeappliances/%s/events", haID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream stays open indefinitely; the REST client's timeout would
	// kill it, so use a dedicated client and rely on ctx for shutdown.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: opening event stream for %s: %w", ErrCommunication, haID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: event stream for %s: status %d", ErrAuthorization, haID, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: event stream for %s: status %d", ErrCommunication, haID, resp.StatusCode)
	}

	if logger := c.getLogger(); logger != nil {
		logger.Debug("event stream opened", "ha_id", haID)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType, data string
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			// Blank line terminates one frame.
			c.dispatch(haID, eventType, data, fn)
			eventType, data = "", ""
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
		// id: and comment lines are ignored.
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading event stream for %s: %w", ErrCommunication, haID, err)
	}
	return fmt.Errorf("%w: appliance %s", ErrStreamClosed, haID)
}

// dispatch decodes one SSE frame and forwards the contained events.
func (c *Client) dispatch(haID, eventType, data string, fn EventFunc) {
	switch eventType {
	case "", "KEEP-ALIVE":
		return
	case "CONNECTED":
		fn(appliance.Event{Key: appliance.KeyConnected})
		return
	case "DISCONNECTED":
		fn(appliance.Event{Key: appliance.KeyDisconnected})
		return
	}

	if data == "" {
		return
	}

	var payload ssePayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("dropping undecodable event frame",
				"ha_id", haID,
				"event_type", eventType,
				"error", err)
		}
		return
	}

	for _, item := range payload.Items {
		fn(appliance.Event{
			Key:   item.Key,
			Value: rawValue(item.Value),
			Unit:  item.Unit,
		})
	}
}
