package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/benmeehan/mission-agent/internal/utils"
	"github.com/benmeehan/mission-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// StatePublisher publishes every session snapshot to MQTT. Snapshots are
// queued and published in order by a single worker so observers never block
// on the broker.
type StatePublisher struct {
	Topic      string
	QOS        int
	QueueSize  int
	MqttClient mqtt.MQTTClient
	Logger     zerolog.Logger

	mu   sync.Mutex
	pool *utils.WorkerPool
}

// NewStatePublisher initializes a new StatePublisher.
func NewStatePublisher(topic string, qos, queueSize int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *StatePublisher {
	return &StatePublisher{
		Topic:      topic,
		QOS:        qos,
		QueueSize:  queueSize,
		MqttClient: mqttClient,
		Logger:     logger,
	}
}

// Start launches the publishing worker.
func (p *StatePublisher) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		p.Logger.Warn().Msg("StatePublisher is already running")
		return errors.New("state publisher is already running")
	}
	p.pool = utils.NewWorkerPool(1, p.QueueSize)

	p.Logger.Info().Str("topic", p.Topic).Msg("StatePublisher started successfully")
	return nil
}

// Stop publishes the queued snapshots and stops the worker.
func (p *StatePublisher) Stop() error {
	p.mu.Lock()
	pool := p.pool
	p.pool = nil
	p.mu.Unlock()

	if pool == nil {
		p.Logger.Warn().Msg("StatePublisher is not running")
		return errors.New("state publisher is not running")
	}
	pool.Shutdown()

	p.Logger.Info().Msg("StatePublisher stopped successfully")
	return nil
}

// Observe queues snapshot for publication. It is a session.Observer.
func (p *StatePublisher) Observe(snapshot models.SessionSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool == nil {
		return
	}
	if !p.pool.TrySubmit(func() { p.publish(snapshot) }) {
		p.Logger.Warn().
			Str("session_id", snapshot.SessionID).
			Str("state", string(snapshot.State)).
			Msg("State queue full, dropping snapshot")
	}
}

// TopicFor returns the topic a session's snapshots are published to.
func (p *StatePublisher) TopicFor(snapshot models.SessionSnapshot) string {
	return fmt.Sprintf("%s/%s/%s", p.Topic, snapshot.UserID, snapshot.SessionID)
}

func (p *StatePublisher) publish(snapshot models.SessionSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		p.Logger.Error().Err(err).Msg("Failed to serialize session snapshot")
		return
	}

	topic := p.TopicFor(snapshot)
	token := p.MqttClient.Publish(topic, byte(p.QOS), false, payload)
	token.Wait()

	if err := token.Error(); err != nil {
		p.Logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish session snapshot")
	} else {
		p.Logger.Debug().Str("topic", topic).Str("state", string(snapshot.State)).Msg("Session snapshot published")
	}
}
