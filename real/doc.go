// Package real provides the host audio device track for the audio renderer.
//
// OtoAudioTrack implements interfaces.AudioTrack on top of
// github.com/ebitengine/oto/v3. The renderer enqueues one interleaved int16
// buffer per tick; oto's playback goroutine pulls the data through Read and
// the track fires the release callback each time a whole buffer has been
// handed to the device.
//
// # Architecture
//
//	┌──────────────────┐  Enqueue   ┌─────────────────┐  Read   ┌───────────┐
//	│  AudioRenderer   │ ─────────▶ │  OtoAudioTrack  │ ◀────── │ oto.Player│
//	└──────────────────┘            │  bounded queue  │         └───────────┘
//	         ▲                      └────────┬────────┘
//	         │        release callback       │
//	         └───────────────────────────────┘
//
// The queue is bounded by AudioTrackConfig.QueueDepth. A full queue makes
// Enqueue return interfaces.ErrQueueFull immediately so the renderer never
// blocks. When the queue runs dry Read emits silence.
//
// # Headless builds
//
// Building with the headless tag replaces the device with a track that
// accepts and releases buffers immediately, for CI machines without audio
// hardware:
//
//	go build -tags headless ./...
package real
