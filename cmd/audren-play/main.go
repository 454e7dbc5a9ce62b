// Command audren-play renders a looping sine tone through an audio renderer
// and plays it on the host audio device.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/opd-ai/audren"
	"github.com/opd-ai/audren/factory"
	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/memory"
	"github.com/opd-ai/audren/mix"
	"github.com/opd-ai/audren/revision"
	simtrack "github.com/opd-ai/audren/testing"
	"github.com/opd-ai/audren/update"
	"github.com/opd-ai/audren/voice"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const toneBase = 0x100000

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

type config struct {
	rate       uint
	frames     uint
	frequency  float64
	volume     float64
	duration   time.Duration
	revision   int
	simulation bool
}

func main() {
	var cfg config
	flag.UintVar(&cfg.rate, "rate", audren.SampleRate48k, "renderer sample rate (32000 or 48000)")
	flag.UintVar(&cfg.frames, "frames", 240, "frames per tick")
	flag.Float64Var(&cfg.frequency, "freq", 440, "tone frequency in Hz")
	flag.Float64Var(&cfg.volume, "volume", 0.5, "voice volume")
	flag.DurationVar(&cfg.duration, "duration", 2*time.Second, "how long to play")
	flag.IntVar(&cfg.revision, "revision", revision.MaxVersion, "renderer protocol revision")
	flag.BoolVar(&cfg.simulation, "sim", false, "render into the in-memory track instead of the audio device")
	flag.Parse()

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(cfg, styled); err != nil {
		fmt.Fprintln(os.Stderr, render(styled, errorStyle, "error: "+err.Error()))
		os.Exit(1)
	}
}

func render(styled bool, style lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}

func field(styled bool, label string, value any) string {
	return render(styled, labelStyle, fmt.Sprintf("%-12s", label)) + render(styled, valueStyle, fmt.Sprint(value))
}

func run(cfg config, styled bool) error {
	params := audren.AudioRendererParameters{
		SampleRate:              uint32(cfg.rate),
		SampleCount:             uint32(cfg.frames),
		MixBufferCount:          limits.ChannelCount,
		VoiceCount:              1,
		SinkCount:               1,
		PerformanceManagerCount: 1,
		Revision:                revision.Magic(cfg.revision),
	}

	f := factory.NewAudioTrackFactory()
	if cfg.simulation {
		f.SwitchToSimulation()
	}
	track, err := f.CreateAudioTrack()
	if err != nil {
		return err
	}

	toneFrames := int(cfg.rate)
	mem := memory.NewFlat(toneBase, limits.AlignUp(toneFrames*2))
	if err := writeTone(mem, toneFrames, cfg.frequency, float64(cfg.rate)); err != nil {
		return err
	}

	opts := audren.NewOptions()
	opts.Memory = mem
	opts.Track = track
	r, err := audren.NewAudioRenderer(params, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Println(render(styled, titleStyle, "audren-play"))
	fmt.Println(field(styled, "revision", r.GetRevision()))
	fmt.Println(field(styled, "output", fmt.Sprintf("%d Hz, %d frames/tick", r.GetSampleRate(), r.GetSampleCount())))
	fmt.Println(field(styled, "tone", fmt.Sprintf("%.1f Hz", cfg.frequency)))
	output := "host device"
	if track.IsSimulation() {
		output = "simulated"
	}
	fmt.Println(field(styled, "track", output))

	if err := r.Start(); err != nil {
		return err
	}

	first := toneUpdate(params, mem, toneFrames, float32(cfg.volume))
	if _, err := r.RequestUpdate(first.Marshal(params.Revision)); err != nil {
		return err
	}

	ticks := int(cfg.duration.Seconds() * float64(cfg.rate) / float64(cfg.frames))
	empty := (&update.Update{}).Marshal(params.Revision)
	ev := r.QuerySystemEvent()
	sim, _ := track.(*simtrack.SimulatedAudioTrack)
	tickTime := time.Duration(float64(time.Second) * float64(cfg.frames) / float64(cfg.rate))

	for i := 1; i < ticks; i++ {
		if sim != nil {
			sim.Release(1)
		} else if i >= factory.DefaultQueueDepth {
			// keep the device queue topped up; wait for a buffer to finish
			ctx, cancel := context.WithTimeout(context.Background(), 10*tickTime+time.Second)
			err := ev.Wait(ctx)
			cancel()
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "run",
					"tick":     i,
				}).Warn("Timed out waiting for the release event")
			}
		}
		ev.Reset()

		if _, err := r.RequestUpdate(empty); err != nil {
			return err
		}
	}

	if sim == nil {
		time.Sleep(time.Duration(factory.DefaultQueueDepth) * tickTime)
	}

	m := r.GetPerformanceMetrics()
	fmt.Println(field(styled, "ticks", m.ElapsedFrames))
	fmt.Println(field(styled, "dropped", m.DroppedTicks))
	fmt.Println(field(styled, "avg mix", m.AverageMixTime))
	fmt.Println(field(styled, "peak mix", m.PeakMixTime))
	return nil
}

// writeTone fills guest memory with one second of a sine tone. Whole-hertz
// frequencies loop without a seam.
func writeTone(mem *memory.Flat, frames int, frequency, rate float64) error {
	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		s := math.Sin(2 * math.Pi * frequency * float64(i) / rate)
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(s*math.MaxInt16)))
	}
	return mem.WriteAt(data, mem.Base())
}

// toneUpdate attaches the tone's memory pool and starts a looping voice on it.
func toneUpdate(params audren.AudioRendererParameters, mem *memory.Flat, frames int, volume float32) *update.Update {
	pools := make([]update.MemoryPoolIn, params.MemoryPoolCount())
	pools[0] = update.MemoryPoolIn{
		Address: mem.Base(),
		Size:    uint64(mem.Size()),
		State:   uint32(memory.StateRequestAttach),
	}

	v := update.VoiceIn{
		FirstUpdate:             true,
		Acquired:                true,
		PlaybackState:           uint8(voice.StateStarted),
		SampleFormat:            uint8(voice.FormatPcmInt16),
		SampleRate:              params.SampleRate,
		ChannelCount:            1,
		Pitch:                   1,
		Volume:                  volume,
		AppendedWaveBufferCount: 1,
		DestinationMixID:        update.UnusedMixID,
	}
	v.WaveBuffers[0] = update.WaveBufferIn{
		Address:   mem.Base(),
		Size:      uint64(frames * 2),
		EndOffset: uint32(frames),
		Loop:      true,
	}

	sink := update.SinkIn{Type: uint8(mix.SinkDevice), InUse: true, InputCount: 2}
	copy(sink.DeviceName[:], "MainAudioOut")
	sink.Inputs[0], sink.Inputs[1] = 0, 1

	return &update.Update{
		MemoryPools: pools,
		Voices:      []update.VoiceIn{v},
		Sinks:       []update.SinkIn{sink},
	}
}
