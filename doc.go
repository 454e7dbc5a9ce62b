// Package audren implements the host side of an emulated audio renderer
// service.
//
// A guest program describes its audio graph (memory pools, voices, effects,
// sub-mixes and sinks) in binary update blobs. The renderer decodes each blob,
// applies it to fixed, index-addressed entity tables, mixes one tick of
// interleaved stereo 16-bit output and hands it to a host audio track. When
// the track finishes playing a buffer the renderer's release event is
// signaled so the guest knows to submit the next update.
//
// # Getting Started
//
// Build the parameters the guest submitted, then create a renderer over the
// guest's memory:
//
//	params, err := audren.ParseParameters(blob)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	options := audren.NewOptions()
//	options.Memory = guestMemory
//
//	renderer, err := audren.NewAudioRenderer(params, options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	renderer.Start()
//	response, err := renderer.RequestUpdate(updateBlob)
//
// # Host Audio Track
//
// Options.Track selects the host output. When it is nil the factory package
// creates one, honouring the AUDREN_USE_SIMULATION, AUDREN_TRACK_QUEUE_DEPTH
// and AUDREN_LOG_LEVEL environment variables. The real track plays through
// the system audio device; the simulated track in the testing package keeps
// buffers in memory until they are released explicitly.
//
// # Error Handling
//
// Header, size and revision problems make RequestUpdate fail without touching
// any entity:
//
//	if _, err := renderer.RequestUpdate(blob); errors.Is(err, audren.ErrSizeMismatch) {
//	    // the blob was truncated or its header is inconsistent
//	}
//
// Problems with a single pool, voice, effect, mix or sink only disable that
// entity and come back as error infos in the response.
//
// # Thread Safety
//
// All renderer operations are safe for concurrent use. The release event
// returned by QuerySystemEvent may be waited on from any goroutine.
package audren
