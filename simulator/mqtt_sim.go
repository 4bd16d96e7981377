package main

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// newMQTTClient connects one console to the broker. Consoles reconnect on
// their own so a broker restart mid-run does not strand them.
func newMQTTClient(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetKeepAlive(30 * time.Second).
		SetConnectTimeout(5 * time.Second)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}
