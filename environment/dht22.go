package environment

import (
	"context"
	"fmt"
	"sync"

	"github.com/MichaelS11/go-dht"

	"github.com/mklimuk/sensorhub"
)

var dhtHostInit = sync.OnceValue(dht.HostInit)

// DHT22 is an AM2302 temperature/humidity sensor on a single GPIO line.
type DHT22 struct {
	dev     *dht.DHT
	retries int
}

// NewDHT22 opens the sensor on the given GPIO pin name (e.g. "GPIO4").
func NewDHT22(pin string) (*DHT22, error) {
	if err := dhtHostInit(); err != nil {
		return nil, fmt.Errorf("dht22: host init failed: %w", err)
	}
	dev, err := dht.NewDHT(pin, dht.Celsius, "")
	if err != nil {
		return nil, fmt.Errorf("dht22: could not open pin %s: %w", pin, err)
	}
	return &DHT22{dev: dev, retries: 11}, nil
}

func (d *DHT22) GetTempAndHum(ctx context.Context) (float32, float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	hum, temp, err := d.dev.ReadRetry(d.retries)
	if err != nil {
		return 0, 0, fmt.Errorf("dht22: read failed: %w", err)
	}
	return float32(temp), float32(hum), nil
}

func (d *DHT22) Temperature() sensorhub.Sensor {
	return sensorhub.ValueSensor(func(ctx context.Context) (float32, error) {
		t, _, err := d.GetTempAndHum(ctx)
		return t, err
	})
}

func (d *DHT22) Humidity() sensorhub.Sensor {
	return sensorhub.ValueSensor(func(ctx context.Context) (float32, error) {
		_, h, err := d.GetTempAndHum(ctx)
		return h, err
	})
}
