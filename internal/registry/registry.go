package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "device:last:"
	defaultTTL = 24 * time.Hour

	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
)

// Device is one known device with its last activity.
type Device struct {
	DeviceID string    `json:"device_id"`
	FwSrc    string    `json:"fw_src"`
	LastSeen time.Time `json:"last_seen"`
}

// Store keeps a last-seen entry per device in redis. Entries expire on their
// own when a device goes quiet.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore connects to redis and validates the connection with PING.
func NewStore(addr, password string) (*Store, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("registry: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &Store{client: client, ttl: defaultTTL}, nil
}

func key(deviceID string) string {
	return keyPrefix + deviceID
}

// Touch refreshes the device's last-seen entry.
func (s *Store) Touch(ctx context.Context, deviceID, fwSrc string, seen time.Time) error {
	data, err := json.Marshal(Device{
		DeviceID: deviceID,
		FwSrc:    fwSrc,
		LastSeen: seen.UTC(),
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(deviceID), data, s.ttl).Err()
}

// Devices lists every device seen within the TTL.
func (s *Store) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, err
		}
		var d Device
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			continue
		}
		devices = append(devices, d)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}

// Close releases the redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
