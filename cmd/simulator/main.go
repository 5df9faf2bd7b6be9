package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Simulates vehicle trackers: each vehicle publishes a location fix to
// <prefix>/<vehicleID>/location on a fixed interval, drifting from its
// starting point like a vehicle in city traffic.

type fix struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Speed     float64 `json:"speed"`
}

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "mqtt broker url")
	prefix := flag.String("prefix", "fleet/vehicles", "topic prefix")
	vehicles := flag.String("vehicles", "", "comma-separated vehicle ids")
	interval := flag.Duration("interval", 5*time.Second, "publish interval")
	lng := flag.Float64("lng", 77.5946, "starting longitude")
	lat := flag.Float64("lat", 12.9716, "starting latitude")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ids := strings.Split(*vehicles, ",")
	if *vehicles == "" || len(ids) == 0 {
		log.Fatal("at least one vehicle id is required")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID(fmt.Sprintf("fleettrack-simulator-%d", os.Getpid()))

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Fatal("failed to connect to broker")
	}
	defer client.Disconnect(250)

	log.WithFields(logrus.Fields{
		"broker":   *broker,
		"vehicles": len(ids),
	}).Info("simulator started")

	positions := make(map[string]fix, len(ids))
	for _, id := range ids {
		positions[id] = fix{Longitude: *lng, Latitude: *lat}
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			log.Info("simulator stopped")
			return
		case <-ticker.C:
			for _, id := range ids {
				pos := positions[id]
				// ~100m of drift per tick, speed in km/h.
				pos.Longitude += (rand.Float64() - 0.5) * 0.002
				pos.Latitude += (rand.Float64() - 0.5) * 0.002
				pos.Speed = 20 + rand.Float64()*40
				positions[id] = pos

				payload, err := json.Marshal(pos)
				if err != nil {
					log.WithError(err).Error("marshal fix")
					continue
				}

				topic := fmt.Sprintf("%s/%s/location", strings.TrimSuffix(*prefix, "/"), id)
				if token := client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
					log.WithError(token.Error()).WithField("vehicle_id", id).Warn("publish failed")
					continue
				}

				log.WithFields(logrus.Fields{
					"vehicle_id": id,
					"longitude":  pos.Longitude,
					"latitude":   pos.Latitude,
				}).Debug("fix published")
			}
		}
	}
}
