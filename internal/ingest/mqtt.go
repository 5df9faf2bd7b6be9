package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"fleettrack/internal/config"
	"fleettrack/internal/domain"
	"fleettrack/internal/service"
)

const reportTimeout = 10 * time.Second

// telemetryPayload is the JSON a vehicle tracker publishes.
type telemetryPayload struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Speed     float64 `json:"speed"`
	Address   string  `json:"address"`
}

// MQTTIngest subscribes to tracker telemetry and feeds it into the
// location pipeline. Topics follow <prefix>/<vehicleID>/location; the
// reports run under a manager-capability ingest identity since trackers
// carry no user token.
type MQTTIngest struct {
	client    mqtt.Client
	locations *service.LocationService
	topic     string
	actor     domain.Actor
	log       *logrus.Logger
}

// NewMQTTIngest connects to the broker and returns the ingest, not yet
// subscribed.
func NewMQTTIngest(cfg config.MQTTConfig, locations *service.LocationService, log *logrus.Logger) (*MQTTIngest, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", token.Error())
	}

	return &MQTTIngest{
		client:    client,
		locations: locations,
		topic:     strings.TrimSuffix(cfg.TopicPrefix, "/") + "/+/location",
		actor:     domain.Actor{ID: cfg.IngestActorID, Role: domain.RoleManager},
		log:       log,
	}, nil
}

// Start subscribes to the telemetry topic.
func (m *MQTTIngest) Start() error {
	token := m.client.Subscribe(m.topic, 1, m.handle)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribing to %s: %w", m.topic, token.Error())
	}

	m.log.WithField("topic", m.topic).Info("mqtt ingest started")
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (m *MQTTIngest) Stop() {
	m.client.Unsubscribe(m.topic)
	m.client.Disconnect(250)
	m.log.Info("mqtt ingest stopped")
}

func (m *MQTTIngest) handle(_ mqtt.Client, msg mqtt.Message) {
	vehicleID := vehicleIDFromTopic(msg.Topic())
	if vehicleID == "" {
		m.log.WithField("topic", msg.Topic()).Warn("telemetry on unexpected topic")
		return
	}

	var payload telemetryPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		m.log.WithFields(logrus.Fields{
			"vehicle_id": vehicleID,
			"error":      err,
		}).Warn("malformed telemetry payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	_, err := m.locations.Report(ctx, service.ReportLocationRequest{
		VehicleID: vehicleID,
		Longitude: payload.Longitude,
		Latitude:  payload.Latitude,
		Speed:     payload.Speed,
		Address:   payload.Address,
		Actor:     m.actor,
	})
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"vehicle_id": vehicleID,
			"error":      err,
		}).Warn("telemetry report rejected")
		return
	}

	m.log.WithFields(logrus.Fields{
		"vehicle_id": vehicleID,
		"longitude":  payload.Longitude,
		"latitude":   payload.Latitude,
	}).Debug("telemetry report stored")
}

// vehicleIDFromTopic extracts the vehicle segment from
// <prefix>/<vehicleID>/location.
func vehicleIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[len(parts)-1] != "location" {
		return ""
	}
	return parts[len(parts)-2]
}
