package mqtt

import (
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	keepAlive       = 30 * time.Second
	connectTimeout  = 10 * time.Second
	disconnectGrace = 250 // milliseconds, paho API takes a quiesce in ms
)

// Handler receives every message published on the subscribed topic pattern.
type Handler func(topic string, payload []byte)

// Client wraps the paho client. Reconnects, QoS and session state all belong
// to the library; this wrapper only connects, subscribes and reports state.
type Client struct {
	client paho.Client
	topic  string
	logger *zap.Logger
}

// NewClient configures a paho client for the broker URL. The connection is
// not opened until Connect.
func NewClient(brokerURL, clientID, topic string, logger *zap.Logger, handler Handler) *Client {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetKeepAlive(keepAlive).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	c := &Client{topic: topic, logger: logger}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})
	// Resubscribe on every (re)connect; paho drops subscriptions with the
	// default clean session.
	opts.SetOnConnectHandler(func(client paho.Client) {
		logger.Info("mqtt connected", zap.String("topic", topic))
		token := client.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
			handler(msg.Topic(), msg.Payload())
		})
		go func() {
			if token.Wait(); token.Error() != nil {
				logger.Error("mqtt subscribe failed", zap.String("topic", topic), zap.Error(token.Error()))
			}
		}()
	})

	c.client = paho.NewClient(opts)
	return c
}

// Connect opens the broker connection. A failure is returned so the caller
// can log it; the process is expected to keep running without telemetry.
func (c *Client) Connect() error {
	token := c.client.Connect()
	token.Wait()
	return token.Error()
}

// Connected reports the broker connection state for /health.
func (c *Client) Connected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects after a short drain.
func (c *Client) Close() {
	c.client.Disconnect(disconnectGrace)
}

// DeviceFromTopic extracts the wildcarded device segment from a topic like
// "scooter/<device>/telemetry". Returns "" when the topic has another shape.
func DeviceFromTopic(topic string) string {
	segs := strings.Split(topic, "/")
	if len(segs) == 3 && segs[2] == "telemetry" {
		return segs[1]
	}
	return ""
}
