package influx

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// NewClient builds an InfluxDB client with second write precision, which is
// all the device clock provides.
func NewClient(url, token string) influxdb2.Client {
	opts := influxdb2.DefaultOptions().SetPrecision(time.Second)
	return influxdb2.NewClientWithOptions(url, token, opts)
}
