// Package mqtt is the broker-facing side of ApplianceLink.
//
// Channel values computed from cloud events are published retained under
// appliancelink/state/{haId}/{channel}; inbound user commands arrive on
// appliancelink/command/{haId}/{channel}. The Topics type builds and parses
// these topic strings so the naming scheme lives in one place.
//
// The Client keeps a map of active subscriptions and replays them whenever
// paho reconnects, since sessions are clean and the broker keeps nothing.
// It also maintains the service presence topic appliancelink/system/status:
// online when connected, offline on graceful shutdown, and a last-will
// offline payload if the process disappears.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        haID, channel, err := mqtt.Topics{}.ParseCommand(topic)
//	        ...
//	    })
package mqtt
