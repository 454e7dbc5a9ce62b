package audren

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/audren/effect"
	"github.com/opd-ai/audren/event"
	"github.com/opd-ai/audren/factory"
	"github.com/opd-ai/audren/interfaces"
	"github.com/opd-ai/audren/internal/dsp"
	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/memory"
	"github.com/opd-ai/audren/mix"
	"github.com/opd-ai/audren/revision"
	"github.com/opd-ai/audren/update"
	"github.com/opd-ai/audren/voice"
	"github.com/sirupsen/logrus"
)

// PlaybackState is the renderer's playback state.
type PlaybackState uint32

const (
	// StateStopped is the initial state. Updates apply but nothing is mixed.
	StateStopped PlaybackState = iota
	// StateStarted mixes and enqueues a buffer after every update.
	StateStarted
)

// String returns the state name.
func (s PlaybackState) String() string {
	if s == StateStarted {
		return "Started"
	}
	return "Stopped"
}

// AudioRenderer is one guest audio renderer instance. It owns every entity
// the guest addresses by index, the host audio track and the release event.
//
// RequestUpdate, Start, Stop and Close are serialized by an internal mutex.
// The release event is signaled from the track's playback goroutine.
type AudioRenderer struct {
	mu sync.Mutex

	params AudioRendererParameters
	info   revision.Info
	layout update.Layout
	writer *update.Writer

	mem          interfaces.GuestMemory
	track        interfaces.AudioTrack
	releaseEvent *event.Event
	state        PlaybackState
	closed       bool

	pools     *memory.Table
	resources []voice.ChannelResource
	voices    []*voice.Voice
	effects   []*effect.Effect
	mixes     []*mix.Mix
	sinks     []*mix.Sink
	perfNodes []uint32

	buses      [][]float64
	gain       *dsp.Gain
	scratch    []int16
	sorted     []*effect.Effect
	channelMap []int
	published  []int16

	perf *PerformanceManager
}

// NewAudioRenderer validates params and builds a renderer around the track
// and guest memory in opts. When opts.Track is nil a track is created by the
// default factory. The track is opened for params.SampleRate stereo output.
func NewAudioRenderer(params AudioRendererParameters, opts *Options) (*AudioRenderer, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if opts.Memory == nil {
		return nil, ErrNoGuestMemory
	}

	info, err := params.Validate()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewAudioRenderer",
			"error":    err.Error(),
		}).Error("Renderer parameters rejected")
		return nil, err
	}

	track := opts.Track
	if track == nil {
		track, err = factory.NewAudioTrackFactory().CreateAudioTrack()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTrackOpen, err)
		}
	}
	if err := track.Open(params.SampleRate, limits.ChannelCount); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "NewAudioRenderer",
			"sample_rate": params.SampleRate,
			"error":       err.Error(),
		}).Error("Failed to open audio track")
		return nil, fmt.Errorf("%w: %w", ErrTrackOpen, err)
	}

	r := newRenderer(params, info, opts, track)

	logrus.WithFields(logrus.Fields{
		"function":     "NewAudioRenderer",
		"revision":     info.String(),
		"sample_rate":  params.SampleRate,
		"sample_count": params.SampleCount,
		"mix_buffers":  params.MixBufferCount,
		"voices":       params.VoiceCount,
		"effects":      params.EffectCount,
		"sub_mixes":    params.SubMixCount,
		"sinks":        params.SinkCount,
		"simulation":   track.IsSimulation(),
		"event":        r.releaseEvent.Handle(),
	}).Info("Audio renderer created")

	return r, nil
}

func newRenderer(params AudioRendererParameters, info revision.Info, opts *Options, track interfaces.AudioTrack) *AudioRenderer {
	sampleCount := int(params.SampleCount)
	r := &AudioRenderer{
		params:       params,
		info:         info,
		layout:       params.Layout(),
		writer:       update.NewWriter(info),
		mem:          opts.Memory,
		track:        track,
		releaseEvent: event.New(),
		pools:        memory.NewTable(params.MemoryPoolCount()),
		resources:    make([]voice.ChannelResource, params.VoiceCount),
		voices:       make([]*voice.Voice, params.VoiceCount),
		effects:      make([]*effect.Effect, params.EffectCount),
		mixes:        make([]*mix.Mix, params.MixCount()),
		sinks:        make([]*mix.Sink, params.SinkCount),
		perfNodes:    make([]uint32, params.PerformanceManagerCount),
		buses:        make([][]float64, params.MixBufferCount),
		gain:         dsp.NewGain(sampleCount),
		scratch:      make([]int16, sampleCount*limits.ChannelCount),
		sorted:       make([]*effect.Effect, 0, params.EffectCount),
		channelMap:   make([]int, limits.ChannelCount),
		published:    make([]int16, sampleCount*limits.ChannelCount),
		perf:         NewPerformanceManager(int(params.PerformanceManagerCount), opts.TimeProvider),
	}
	for i := range r.voices {
		r.voices[i] = voice.New(i, sampleCount)
	}
	for i := range r.effects {
		r.effects[i] = effect.New(i)
	}
	for i := range r.mixes {
		r.mixes[i] = mix.New(i, int(params.MixBufferCount))
	}
	for i := range r.sinks {
		r.sinks[i] = &mix.Sink{}
	}
	for i := range r.buses {
		r.buses[i] = make([]float64, sampleCount)
	}
	if opts.DetailedLogging {
		r.perf.SetDetailedLogging(true)
	}

	track.SetReleaseCallback(r.releaseEvent.Signal)
	return r
}

// GetSampleRate returns the configured output sample rate.
func (r *AudioRenderer) GetSampleRate() uint32 { return r.params.SampleRate }

// GetSampleCount returns the number of frames produced per tick.
func (r *AudioRenderer) GetSampleCount() uint32 { return r.params.SampleCount }

// GetMixBufferCount returns the configured mix buffer count.
func (r *AudioRenderer) GetMixBufferCount() uint32 { return r.params.MixBufferCount }

// GetRevision returns the revision the renderer was created for.
func (r *AudioRenderer) GetRevision() revision.Info { return r.info }

// GetState returns the playback state.
func (r *AudioRenderer) GetState() PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// QuerySystemEvent returns the release event. It is the same event for the
// lifetime of the renderer.
func (r *AudioRenderer) QuerySystemEvent() *event.Event {
	return r.releaseEvent
}

// GetPerformanceMetrics returns the mix timing counters.
func (r *AudioRenderer) GetPerformanceMetrics() PerformanceMetrics {
	return r.perf.GetPerformanceMetrics()
}

// PerformanceManager exposes the renderer's performance manager, mainly to
// toggle detailed logging.
func (r *AudioRenderer) PerformanceManager() *PerformanceManager {
	return r.perf
}

// Start begins playback. Starting a started renderer does nothing.
func (r *AudioRenderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.state == StateStarted {
		return nil
	}
	if err := r.track.Start(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "AudioRenderer.Start",
			"error":    err.Error(),
		}).Error("Failed to start audio track")
		return fmt.Errorf("start audio track: %w", err)
	}
	r.state = StateStarted

	logrus.WithFields(logrus.Fields{
		"function": "AudioRenderer.Start",
	}).Info("Audio renderer started")
	return nil
}

// Stop halts playback and silently discards buffers still queued on the
// track. Stopping a stopped renderer does nothing.
func (r *AudioRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.state == StateStopped {
		return nil
	}
	r.state = StateStopped
	clear(r.published)
	if err := r.track.Stop(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "AudioRenderer.Stop",
			"error":    err.Error(),
		}).Warn("Audio track stop failed")
	}

	logrus.WithFields(logrus.Fields{
		"function": "AudioRenderer.Stop",
	}).Info("Audio renderer stopped")
	return nil
}

// Close stops playback and releases the track. It is safe to call twice.
func (r *AudioRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.state = StateStopped

	err := r.track.Close()
	logrus.WithFields(logrus.Fields{
		"function": "AudioRenderer.Close",
		"ticks":    r.perf.ElapsedFrames(),
	}).Info("Audio renderer closed")
	return err
}

// RequestUpdate applies one guest update blob and returns the response blob.
//
// Header, size and revision problems fail the whole call before any entity
// changes. Problems with single entities degrade that entity and are
// reported as error infos in the response. While started the renderer mixes
// and enqueues one buffer after applying the update.
func (r *AudioRenderer) RequestUpdate(input []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	up, err := update.Parse(input, r.layout, r.info)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "AudioRenderer.RequestUpdate",
			"size":     len(input),
			"error":    err.Error(),
		}).Error("Update rejected")
		return nil, err
	}

	infos := r.apply(up)
	if r.state == StateStarted {
		r.updateAudio()
	}
	return r.writer.Write(r.output(infos)), nil
}

// apply hands every decoded section to its entities in encounter order and
// collects the failures as error infos.
func (r *AudioRenderer) apply(up *update.Update) []update.ErrorInfo {
	var infos []update.ErrorInfo
	report := func(err error, extra uint64) {
		infos = append(infos, update.ErrorInfo{Result: uint32(resultFor(err)), Extra: extra})
	}

	if up.Behavior != nil {
		logrus.WithFields(logrus.Fields{
			"function":      "AudioRenderer.apply",
			"user_revision": fmt.Sprintf("%#x", up.Behavior.UserRevision),
			"flags":         fmt.Sprintf("%#x", up.Behavior.Flags),
		}).Debug("Behavior section applied")
	}

	for i := range up.MemoryPools {
		if _, err := r.pools.Apply(i, up.MemoryPools[i]); err != nil {
			report(err, up.MemoryPools[i].Address)
		}
	}

	for i := range up.VoiceResources {
		r.resources[i].Apply(&up.VoiceResources[i])
	}

	for i := range up.Voices {
		if err := r.voices[i].Apply(&up.Voices[i], r.info); err != nil {
			report(err, uint64(i))
		}
	}

	// Pool and queue changes both move the mapped state, so every voice is
	// re-checked even when the voice section was omitted.
	for _, v := range r.voices {
		v.UpdateMapping(r.pools, r.mem)
	}

	env := effect.Env{
		SampleRate:  r.params.SampleRate,
		SampleCount: int(r.params.SampleCount),
		Info:        r.info,
	}
	for i := range up.Effects {
		if err := r.effects[i].Apply(&up.Effects[i], env); err != nil {
			report(err, uint64(i))
		}
	}

	for i := range up.Mixes {
		if err := r.mixes[i].Apply(&up.Mixes[i], int(r.params.MixBufferCount)); err != nil {
			report(err, uint64(i))
		}
	}

	for i := range up.Sinks {
		if err := r.sinks[i].Apply(&up.Sinks[i]); err != nil {
			report(err, uint64(i))
		}
	}

	for i := range up.Performance {
		r.perfNodes[i] = up.Performance[i].TargetNodeID
	}

	if len(infos) > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "AudioRenderer.apply",
			"errors":   len(infos),
		}).Debug("Update applied with entity errors")
	}
	return infos
}

func (r *AudioRenderer) output(infos []update.ErrorInfo) *update.Output {
	out := &update.Output{
		MemoryPools:       r.pools.States(),
		Voices:            make([]update.VoiceOut, len(r.voices)),
		Effects:           make([]uint8, len(r.effects)),
		Sinks:             make([]update.SinkOut, len(r.sinks)),
		Performance:       make([]update.PerformanceOut, len(r.perfNodes)),
		ErrorInfos:        infos,
		ElapsedFrameCount: r.perf.ElapsedFrames(),
	}
	for i, v := range r.voices {
		out.Voices[i] = v.Out()
	}
	for i, e := range r.effects {
		out.Effects[i] = uint8(e.OutState())
	}
	history := uint32(min(r.perf.HistorySize(), limits.PerformanceHistoryFrames))
	for i := range out.Performance {
		out.Performance[i].HistorySize = history
	}
	return out
}

// MixFinalBuffer composes one tick and returns a copy of the published
// interleaved stereo buffer.
func (r *AudioRenderer) MixFinalBuffer() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mixFinalBuffer()
	return append([]int16(nil), r.published...)
}

// UpdateAudio mixes one tick and hands it to the track. It does nothing
// while stopped.
func (r *AudioRenderer) UpdateAudio() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateStarted && !r.closed {
		r.updateAudio()
	}
}

// Output returns a copy of the last published buffer.
func (r *AudioRenderer) Output() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int16(nil), r.published...)
}

func (r *AudioRenderer) updateAudio() {
	start := r.perf.Begin()
	r.mixFinalBuffer()

	err := r.track.Enqueue(r.published, int(r.params.SampleCount))
	switch {
	case err == nil:
	case errors.Is(err, interfaces.ErrQueueFull):
		r.perf.CountDropped()
		logrus.WithFields(logrus.Fields{
			"function": "AudioRenderer.updateAudio",
		}).Debug("Audio track full, tick dropped")
	default:
		r.perf.CountEnqueueError()
		logrus.WithFields(logrus.Fields{
			"function": "AudioRenderer.updateAudio",
			"error":    err.Error(),
		}).Warn("Audio track rejected buffer")
	}
	r.perf.End(start)
}

// mixFinalBuffer renders into scratch and swaps it with the published
// buffer. Stopped renderers publish silence.
func (r *AudioRenderer) mixFinalBuffer() {
	out := r.scratch
	if r.state != StateStarted {
		clear(out)
		r.scratch, r.published = r.published, out
		return
	}

	for _, b := range r.buses {
		clear(b)
	}

	for _, v := range r.voices {
		if !v.Enabled() {
			continue
		}
		dst := r.voiceDestination(v.Destination())
		v.Mix(r.mem, dst.Buses(r.buses), r.resources, r.params.SampleRate, r.info, r.params.VoiceDropEnable)
	}

	r.sorted = effect.AppendSorted(r.sorted, r.effects)
	for _, e := range r.sorted {
		id := int(e.MixID())
		if id < 0 || id >= len(r.mixes) || !r.mixes[id].InUse {
			continue
		}
		e.Process(r.mixes[id].Buses(r.buses))
	}

	for id := len(r.mixes) - 1; id > mix.FinalMixID; id-- {
		m := r.mixes[id]
		if !m.InUse {
			continue
		}
		m.RouteInto(r.buses, m.RouteTarget(r.mixes), r.gain)
	}

	final := r.mixes[mix.FinalMixID]
	buses := final.Buses(r.buses)
	frames := int(r.params.SampleCount)
	for c, b := range mix.ChannelMap(r.channelMap, r.sinks) {
		if b < 0 || b >= len(buses) {
			for i := 0; i < frames; i++ {
				out[i*limits.ChannelCount+c] = 0
			}
			continue
		}
		src := buses[b]
		for i := 0; i < frames; i++ {
			out[i*limits.ChannelCount+c] = dsp.Saturate(final.Volume * src[i])
		}
	}

	r.scratch, r.published = r.published, out
}

// voiceDestination resolves a voice's destination mix. Unused, empty or out
// of range ids fall back to the final mix.
func (r *AudioRenderer) voiceDestination(id int32) *mix.Mix {
	if id >= 0 && int(id) < len(r.mixes) && r.mixes[id].InUse && len(r.mixes[id].Buses(r.buses)) > 0 {
		return r.mixes[id]
	}
	return r.mixes[mix.FinalMixID]
}
