// Command simulator publishes randomized bike telemetry to the MQTT broker,
// standing in for real fleet hardware during development.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/voltride/voltride-backend/telemetry"
)

var cli = struct {
	MQTTBroker string        `name:"mqtt-broker" env:"MQTT_BROKER" default:"tcp://localhost:1883"`
	BikeIDs    []string      `name:"bike-ids" env:"BIKE_IDS" help:"Bike object IDs to simulate."`
	Interval   time.Duration `name:"interval" env:"INTERVAL" default:"5s"`

	// Fleet spawn point; simulated bikes wander around it.
	Lat float64 `name:"lat" env:"LAT" default:"28.6139"`
	Lng float64 `name:"lng" env:"LNG" default:"77.2090"`
}{}

func main() {
	if err := run(); err != nil {
		log.Fatalf("unexpected error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_ = godotenv.Load()
	kong.Parse(&cli)

	if len(cli.BikeIDs) == 0 {
		return fmt.Errorf("at least one bike id is required")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cli.MQTTBroker).
		SetClientID("voltride-simulator")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	batteries := make(map[string]float64, len(cli.BikeIDs))
	for _, id := range cli.BikeIDs {
		batteries[id] = 60 + rand.Float64()*40
	}

	log.Printf("simulating %d bikes every %s", len(cli.BikeIDs), cli.Interval)

	ticker := time.NewTicker(cli.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, id := range cli.BikeIDs {
				batteries[id] -= rand.Float64() * 0.5
				if batteries[id] < 5 {
					batteries[id] = 100
				}

				battery := batteries[id]

				var update telemetry.StatusUpdate
				update.Location.Latitude = cli.Lat + (rand.Float64()-0.5)*0.02
				update.Location.Longitude = cli.Lng + (rand.Float64()-0.5)*0.02
				update.BatteryLevel = &battery

				payload, err := json.Marshal(update)
				if err != nil {
					return err
				}

				topic := fmt.Sprintf("bikes/%s/status", id)
				if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
					log.Printf("publish %s: %v", topic, token.Error())
				}
			}
		}
	}
}
