// Package factory creates the audio track an AudioRenderer feeds.
//
// The factory hides the choice between the in-memory SimulatedAudioTrack and
// the oto-backed host device track, so the renderer and the demo binary never
// name a concrete implementation.
//
// # Configuration
//
// NewAudioTrackFactory reads these environment variables:
//   - AUDREN_USE_SIMULATION: "true" or "false" to select the simulated track
//   - AUDREN_TRACK_QUEUE_DEPTH: buffers held before Enqueue reports a full queue (1-64)
//   - AUDREN_LOG_LEVEL: any logrus level name; applied to the global logger
//
// Invalid values are logged at warn level and the default is kept.
//
// # Usage
//
//	factory := NewAudioTrackFactory()
//	track, err := factory.CreateAudioTrack()
//	if err != nil {
//	    return err
//	}
//
// Tests usually ask for a simulation directly:
//
//	track := factory.CreateSimulationForTesting(WithQueueDepth(2))
//	track.Release(1)
//
// # Thread Safety
//
// All factory methods are safe for concurrent use.
package factory
