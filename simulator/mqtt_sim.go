package main

import paho "github.com/eclipse/paho.mqtt.golang"

// publisher is the slice of paho.Client the simulator needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

func connect(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	cli := paho.NewClient(opts)
	if tok := cli.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, tok.Error()
	}
	return cli, nil
}
