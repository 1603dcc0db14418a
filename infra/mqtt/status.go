// Package mqtt subscribes to the station status feed and mirrors it into the
// charger registry. Stations publish retained status messages on
// chargers/<id>/status.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/infra/logger"
)

const statusTopic = "chargers/+/status"

// Config defines the connection parameters for the status feed.
type Config struct {
	Broker     string      `json:"broker"`
	ClientID   string      `json:"client_id"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	QoS        byte        `json:"qos"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	TLSConfig  *tls.Config `json:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// StatusFeed keeps the charger registry in sync with the broker.
type StatusFeed struct {
	cli      pahoClient
	registry charger.Registry
	qos      byte
	log      logger.Logger
}

// NewStatusFeed connects to the broker and subscribes to the status topic.
func NewStatusFeed(cfg Config, reg charger.Registry) (*StatusFeed, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("status-feed")
	f := &StatusFeed{registry: reg, qos: cfg.QoS, log: log}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(statusTopic, f.qos, f.onStatus); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	f.cli = c
	return f, nil
}

func clientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.loadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func (c Config) loadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (f *StatusFeed) onStatus(_ paho.Client, msg paho.Message) {
	f.apply(msg.Topic(), msg.Payload())
}

// apply parses one status message and updates the registry. Unknown chargers
// and malformed payloads are logged and dropped.
func (f *StatusFeed) apply(topic string, payload []byte) {
	id, ok := chargerIDFromTopic(topic)
	if !ok {
		f.log.Warnf("unexpected topic %q", topic)
		return
	}
	status, err := parseStatusPayload(payload)
	if err != nil {
		f.log.Errorf("bad status for %s: %v", id, err)
		return
	}
	if err := f.registry.SetStatus(context.Background(), id, status); err != nil {
		f.log.Warnf("status update for %s dropped: %v", id, err)
	}
}

// chargerIDFromTopic extracts the id from chargers/<id>/status.
func chargerIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "chargers" || parts[2] != "status" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// parseStatusPayload accepts either {"status":"Available"} or a bare status
// string.
func parseStatusPayload(payload []byte) (model.ChargerStatus, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Status != "" {
		return model.ParseChargerStatus(body.Status)
	}
	return model.ParseChargerStatus(strings.TrimSpace(string(payload)))
}

// Disconnect gracefully closes the MQTT connection.
func (f *StatusFeed) Disconnect() {
	if f.cli != nil && f.cli.IsConnected() {
		f.cli.Disconnect(250)
	}
}
