package audren

import "github.com/opd-ai/audren/interfaces"

// Options contains the collaborators and settings of an AudioRenderer.
type Options struct {
	// Memory is the guest memory wave buffers are read from. Required.
	Memory interfaces.GuestMemory

	// Track receives rendered buffers. When nil the renderer asks
	// factory.NewAudioTrackFactory for one, honouring AUDREN_* overrides.
	Track interfaces.AudioTrack

	// TimeProvider times each mix for the performance manager.
	TimeProvider TimeProvider

	// DetailedLogging enables per-tick trace logging from the start.
	DetailedLogging bool
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		TimeProvider: DefaultTimeProvider{},
	}
}
