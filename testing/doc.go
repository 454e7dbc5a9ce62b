// Package testing provides a simulated host audio track for deterministic
// testing of the audio renderer.
//
// # Overview
//
// SimulatedAudioTrack mirrors the host device track but keeps every enqueued
// buffer in memory. Nothing is played until the test calls Release, which
// pops buffers from the queue and fires the release callback exactly as the
// host playback goroutine would. This makes back-pressure (queue full) and
// release-event signaling reproducible without an audio device.
//
// # Simulation vs Real Implementation
//
//   - Simulation (this package): buffers are recorded in an enqueue log for
//     verification. Used for unit and integration testing and for headless
//     runs.
//
//   - Real (real package): buffers are played through the host audio device
//     using oto.
//
// Both implementations conform to interfaces.AudioTrack and are selected by
// the factory package.
//
// # Usage
//
//	config := &interfaces.AudioTrackConfig{UseSimulation: true, QueueDepth: 4}
//	track := testing.NewSimulatedAudioTrack(config)
//	_ = track.Open(48000, 2)
//	track.SetReleaseCallback(ev.Signal)
//
//	_ = track.Enqueue(samples, frames)
//	track.Release(1) // ev is now signaled
//
//	log := track.GetEnqueueLog()
//
// # Thread Safety
//
// All methods on SimulatedAudioTrack are safe for concurrent use from
// multiple goroutines. Release invokes the callback outside the lock.
package testing
