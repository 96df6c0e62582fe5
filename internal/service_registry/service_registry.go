package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/mission-agent/internal/registry"
	"github.com/benmeehan/mission-agent/internal/services"
	"github.com/benmeehan/mission-agent/internal/session"
	"github.com/benmeehan/mission-agent/internal/utils"
	"github.com/benmeehan/mission-agent/pkg/file"
	"github.com/benmeehan/mission-agent/pkg/identity"
	"github.com/benmeehan/mission-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// stateQueueSize bounds the snapshots waiting to be published.
const stateQueueSize = 64

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	fileClient  file.FileOperations
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry. mqttClient may be nil when MQTT is disabled.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, fileClient file.FileOperations, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		mqttClient: mqttClient,
		fileClient: fileClient,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Services returns the registered service names in start order.
func (sr *ServiceRegistry) Services() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices creates and registers the enabled services based on configuration.
// The state publisher is attached to manager so it sees every session. archive may be nil.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, userInfo identity.UserInfoInterface,
	manager *session.Manager, archive *services.EvidenceArchive) error {
	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "state_publisher",
			enabled: config.MQTT.Enabled,
			constructor: func() (registry.Service, error) {
				if sr.mqttClient == nil {
					return nil, errors.New("state publisher requires an MQTT client")
				}
				publisher := services.NewStatePublisher(
					config.MQTT.Topic,
					config.MQTT.QOS,
					stateQueueSize,
					sr.mqttClient,
					sr.Logger,
				)
				manager.AddObserver(publisher.Observe)
				return publisher, nil
			},
		},
		{
			name:    "status_server",
			enabled: config.StatusServer.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewStatusServer(config.StatusServer.Addr, manager, sr.Logger), nil
			},
		},
		{
			name:    "mission",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return services.NewMissionService(
					manager,
					userInfo,
					archive,
					sr.fileClient,
					config.Runner.Interval,
					sr.Logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
