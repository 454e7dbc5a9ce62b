//go:build !headless

package real

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// ErrDeviceFormat indicates a track asked for a channel layout the shared
// host device was not opened with.
var ErrDeviceFormat = errors.New("host audio device format mismatch")

// device is the process-wide oto context. oto allows one context per
// process, so every track plays through its own player on this context. The
// first track to open fixes the device rate; later tracks at another rate
// are converted on enqueue.
type device struct {
	ctx          *oto.Context
	sampleRate   uint32
	channelCount int
	err          error
}

var (
	sharedDevice     device
	sharedDeviceOnce sync.Once
)

func openDevice(sampleRate uint32, channelCount int, bufferSize time.Duration) (*device, error) {
	sharedDeviceOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(sampleRate),
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   bufferSize,
		})
		if err != nil {
			sharedDevice.err = fmt.Errorf("open audio device: %w", err)
			return
		}
		<-ready

		sharedDevice.ctx = ctx
		sharedDevice.sampleRate = sampleRate
		sharedDevice.channelCount = channelCount

		logrus.WithFields(logrus.Fields{
			"function":    "openDevice",
			"sample_rate": sampleRate,
			"channels":    channelCount,
		}).Info("Host audio device opened")
	})

	if sharedDevice.err != nil {
		return nil, sharedDevice.err
	}
	if sharedDevice.channelCount != channelCount {
		return nil, fmt.Errorf("%w: device has %d channels, track wants %d",
			ErrDeviceFormat, sharedDevice.channelCount, channelCount)
	}
	return &sharedDevice, nil
}
