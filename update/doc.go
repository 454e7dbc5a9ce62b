// Package update decodes the guest's per-tick update blob and encodes the
// renderer's response.
//
// An update blob is a 0x40 byte header followed by sections in a fixed
// order: behavior, memory pools, voice channel resources, voices, effects,
// mixes, sinks, performance managers and, from REV5, the elapsed frame count.
// Every section is either absent (size 0) or holds exactly one fixed size
// record per entity the renderer was created with.
//
// Parse rejects the whole blob on any header level inconsistency and returns
// a fully decoded Update otherwise:
//
//	u, err := update.Parse(blob, layout, info)
//	if errors.Is(err, update.ErrSizeMismatch) {
//	    // nothing was applied
//	}
//
// Update.Marshal produces blobs the way a guest would, which is what tests
// and the demo player use to drive a renderer. Writer and ParseOutput do the
// same for the response.
package update
