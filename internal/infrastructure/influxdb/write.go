package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteChannelMetric records one numeric channel reading under the
// channel_metrics measurement, tagged by appliance and channel. The unit
// tag is omitted for dimensionless readings. Non-blocking; the point is
// batched and sent asynchronously.
func (c *Client) WriteChannelMetric(haID, channel string, value float64, unit string) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"ha_id":   haID,
		"channel": channel,
	}
	if unit != "" {
		tags["unit"] = unit
	}

	c.writeAPI.WritePoint(write.NewPoint("channel_metrics", tags,
		map[string]interface{}{"value": value}, time.Now()))
}

// WriteConnectivity records a reachability transition under the
// connectivity measurement: 1 when the appliance reaches the cloud,
// 0 when it drops.
func (c *Client) WriteConnectivity(haID string, connected bool) {
	if !c.IsConnected() {
		return
	}

	value := 0
	if connected {
		value = 1
	}

	c.writeAPI.WritePoint(write.NewPoint("connectivity",
		map[string]string{"ha_id": haID},
		map[string]interface{}{"connected": value}, time.Now()))
}
