package reader

import (
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// MQTTPublisher publishes every line to one topic, QoS 0, not retained.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

func NewMQTTPublisher(host string, port int, topic string) (*MQTTPublisher, error) {
	broker := fmt.Sprintf("tcp://%s:%d", host, port)
	hostname, _ := os.Hostname()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("envmon-reader-%s", hostname))
	opts.SetKeepAlive(60 * time.Second)
	opts.SetAutoReconnect(true)

	opts.OnConnect = func(client mqtt.Client) {
		log.Info().Str("broker", broker).Msg("Connected to MQTT broker")
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Error().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, token.Error())
	}
	return &MQTTPublisher{client: client, topic: topic}, nil
}

// Publish does not wait for delivery.
func (p *MQTTPublisher) Publish(line string) error {
	token := p.client.Publish(p.topic, 0, false, line)
	select {
	case <-token.Done():
		return token.Error()
	default:
		return nil
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
