package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 250 * time.Millisecond

// MQTTPublisher publishes snapshots as retained QoS 0 messages.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// ConnectMQTT connects to broker and returns a publisher for topic.
func ConnectMQTT(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)
	return &MQTTPublisher{client: client, topic: topic}, nil
}

func (p *MQTTPublisher) Publish(s Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("MQTT publish %s: timeout", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish %s: %w", p.topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// SubscribeMQTT connects to broker and calls fn for every snapshot received
// on topic. Undecodable payloads are logged and dropped. The returned
// function disconnects the client.
func SubscribeMQTT(broker, clientID, topic string, fn func(Snapshot)) (func(), error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s, err := DecodeSnapshot(msg.Payload())
		if err != nil {
			log.Printf("telemetry: snapshot unmarshal error: %v", err)
			return
		}
		fn(s)
	})
	token.Wait()
	if token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("MQTT subscribe %s: %w", topic, token.Error())
	}
	log.Printf("telemetry: subscribed to MQTT topic %s", topic)

	return func() { client.Disconnect(250) }, nil
}

// DecodeSnapshot parses a published payload.
func DecodeSnapshot(payload []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
