package factory

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/opd-ai/audren/interfaces"
	"github.com/opd-ai/audren/real"
	"github.com/opd-ai/audren/testing"
	"github.com/sirupsen/logrus"
)

// Environment variables read by NewAudioTrackFactory.
const (
	EnvUseSimulation   = "AUDREN_USE_SIMULATION"
	EnvTrackQueueDepth = "AUDREN_TRACK_QUEUE_DEPTH"
	EnvLogLevel        = "AUDREN_LOG_LEVEL"
)

// DefaultQueueDepth is the number of rendered buffers a track holds by default.
const DefaultQueueDepth = 4

// AudioTrackFactory creates audio track implementations based on configuration.
// It is safe for concurrent use; all methods are protected by an internal mutex.
type AudioTrackFactory struct {
	mu            sync.RWMutex
	defaultConfig *interfaces.AudioTrackConfig
}

// TestConfigOption is a functional option for customizing test simulation configuration.
type TestConfigOption func(*interfaces.AudioTrackConfig)

// NewAudioTrackFactory creates a new factory with default configuration
func NewAudioTrackFactory() *AudioTrackFactory {
	defaultConfig := createDefaultConfig()
	applyEnvironmentOverrides(defaultConfig)
	logConfigurationInfo(defaultConfig)

	return &AudioTrackFactory{
		defaultConfig: defaultConfig,
	}
}

// createDefaultConfig initializes the default track configuration.
//
// Default Value Rationale:
//   - UseSimulation: false - The host device is used unless simulation is requested
//   - QueueDepth: 4 - Enough to ride out scheduling jitter at 5ms ticks
//   - DeviceBufferMillis: 0 - Let oto pick the platform buffer size
func createDefaultConfig() *interfaces.AudioTrackConfig {
	return &interfaces.AudioTrackConfig{
		UseSimulation:      false,
		QueueDepth:         DefaultQueueDepth,
		DeviceBufferMillis: 0,
	}
}

// applyEnvironmentOverrides updates configuration based on AUDREN_* environment variables.
func applyEnvironmentOverrides(config *interfaces.AudioTrackConfig) {
	parseSimulationSetting(config)
	parseQueueDepthSetting(config)
	parseLogLevelSetting()
}

// parseSimulationSetting updates UseSimulation from AUDREN_USE_SIMULATION.
// Unparsable values are logged and ignored.
func parseSimulationSetting(config *interfaces.AudioTrackConfig) {
	if useSimStr := os.Getenv(EnvUseSimulation); useSimStr != "" {
		useSim, err := strconv.ParseBool(useSimStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseSimulationSetting",
				"env_var":     EnvUseSimulation,
				"value":       useSimStr,
				"error":       err.Error(),
				"using_value": config.UseSimulation,
			}).Warn("Failed to parse AUDREN_USE_SIMULATION environment variable, using default")
			return
		}
		config.UseSimulation = useSim
	}
}

// parseQueueDepthSetting updates QueueDepth from AUDREN_TRACK_QUEUE_DEPTH. The
// value must lie in [MinQueueDepth, MaxQueueDepth].
func parseQueueDepthSetting(config *interfaces.AudioTrackConfig) {
	if depthStr := os.Getenv(EnvTrackQueueDepth); depthStr != "" {
		depth, err := strconv.Atoi(depthStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseQueueDepthSetting",
				"env_var":     EnvTrackQueueDepth,
				"value":       depthStr,
				"error":       err.Error(),
				"using_value": config.QueueDepth,
			}).Warn("Failed to parse AUDREN_TRACK_QUEUE_DEPTH environment variable, using default")
			return
		}
		if depth < interfaces.MinQueueDepth || depth > interfaces.MaxQueueDepth {
			logrus.WithFields(logrus.Fields{
				"function":    "parseQueueDepthSetting",
				"env_var":     EnvTrackQueueDepth,
				"value":       depth,
				"min":         interfaces.MinQueueDepth,
				"max":         interfaces.MaxQueueDepth,
				"using_value": config.QueueDepth,
			}).Warn("AUDREN_TRACK_QUEUE_DEPTH value out of bounds, using default")
			return
		}
		config.QueueDepth = depth
	}
}

// parseLogLevelSetting sets the global logrus level from AUDREN_LOG_LEVEL.
func parseLogLevelSetting() {
	if levelStr := os.Getenv(EnvLogLevel); levelStr != "" {
		level, err := logrus.ParseLevel(levelStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "parseLogLevelSetting",
				"env_var":  EnvLogLevel,
				"value":    levelStr,
				"error":    err.Error(),
			}).Warn("Failed to parse AUDREN_LOG_LEVEL environment variable, keeping current level")
			return
		}
		logrus.SetLevel(level)
	}
}

func logConfigurationInfo(config *interfaces.AudioTrackConfig) {
	logrus.WithFields(logrus.Fields{
		"function":       "NewAudioTrackFactory",
		"use_simulation": config.UseSimulation,
		"queue_depth":    config.QueueDepth,
		"device_buffer":  config.DeviceBufferMillis,
	}).Info("Created audio track factory with configuration")
}

// CreateAudioTrack creates an audio track based on the default configuration
func (f *AudioTrackFactory) CreateAudioTrack() (interfaces.AudioTrack, error) {
	f.mu.RLock()
	config := *f.defaultConfig
	f.mu.RUnlock()
	return f.CreateAudioTrackWithConfig(&config)
}

// CreateAudioTrackWithConfig creates an audio track with custom configuration
func (f *AudioTrackFactory) CreateAudioTrackWithConfig(config *interfaces.AudioTrackConfig) (interfaces.AudioTrack, error) {
	if config == nil {
		f.mu.RLock()
		c := *f.defaultConfig
		f.mu.RUnlock()
		config = &c
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid track configuration: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":       "CreateAudioTrackWithConfig",
		"use_simulation": config.UseSimulation,
		"queue_depth":    config.QueueDepth,
	}).Info("Creating audio track implementation")

	if config.UseSimulation {
		return testing.NewSimulatedAudioTrack(config), nil
	}
	return real.NewOtoAudioTrack(config), nil
}

// WithQueueDepth sets the queue depth for the test configuration.
func WithQueueDepth(depth int) TestConfigOption {
	return func(c *interfaces.AudioTrackConfig) {
		c.QueueDepth = depth
	}
}

// CreateSimulationForTesting creates a simulated track for tests. The default
// test configuration uses QueueDepth=DefaultQueueDepth.
func (f *AudioTrackFactory) CreateSimulationForTesting(opts ...TestConfigOption) *testing.SimulatedAudioTrack {
	testConfig := &interfaces.AudioTrackConfig{
		UseSimulation: true,
		QueueDepth:    DefaultQueueDepth,
	}
	for _, opt := range opts {
		opt(testConfig)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "CreateSimulationForTesting",
		"queue_depth": testConfig.QueueDepth,
	}).Info("Creating simulation track for testing")

	return testing.NewSimulatedAudioTrack(testConfig)
}

// SwitchToSimulation switches the configuration to use simulation
func (f *AudioTrackFactory) SwitchToSimulation() {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToSimulation",
		"previous": f.defaultConfig.UseSimulation,
	}).Info("Switching factory to simulation mode")

	f.defaultConfig.UseSimulation = true
}

// SwitchToReal switches the configuration to use the host device
func (f *AudioTrackFactory) SwitchToReal() {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToReal",
		"previous": f.defaultConfig.UseSimulation,
	}).Info("Switching factory to real mode")

	f.defaultConfig.UseSimulation = false
}

// GetCurrentConfig returns a copy of the current default configuration
func (f *AudioTrackFactory) GetCurrentConfig() *interfaces.AudioTrackConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	c := *f.defaultConfig
	return &c
}

// IsUsingSimulation returns true if the factory is configured for simulation
func (f *AudioTrackFactory) IsUsingSimulation() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.defaultConfig.UseSimulation
}

// UpdateConfig replaces the factory's default configuration
func (f *AudioTrackFactory) UpdateConfig(config *interfaces.AudioTrackConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":        "UpdateConfig",
		"old_simulation":  f.defaultConfig.UseSimulation,
		"new_simulation":  config.UseSimulation,
		"old_queue_depth": f.defaultConfig.QueueDepth,
		"new_queue_depth": config.QueueDepth,
	}).Info("Updating factory configuration")

	c := *config
	f.defaultConfig = &c
	return nil
}
