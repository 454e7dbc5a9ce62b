// Package interfaces defines the collaborator abstractions of the audio
// renderer: the host audio track it feeds and the guest memory it reads.
//
// These interfaces allow switching between the host audio device and an
// in-memory simulation, supporting both real playback and deterministic
// testing.
//
// # Core Interfaces
//
// [AudioTrack] is the host output. The renderer opens it once at
// construction, enqueues one buffer per tick while started and receives a
// release callback when a buffer has been played:
//
//	track, err := factory.NewAudioTrackFactory().CreateAudioTrack()
//	if err != nil {
//	    return err
//	}
//	if err := track.Open(48000, 2); err != nil {
//	    return err
//	}
//	track.SetReleaseCallback(releaseEvent.Signal)
//	if err := track.Enqueue(samples, frames); errors.Is(err, interfaces.ErrQueueFull) {
//	    // drop this tick
//	}
//
// [GuestMemory] is the read side of guest memory. The renderer only reads
// from ranges that lie inside attached memory pools.
//
// # Configuration
//
// [AudioTrackConfig] carries the simulation switch, the queue depth and the
// device buffer length. Validate checks the bounds; the factory package
// fills defaults and environment overrides.
package interfaces
