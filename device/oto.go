//go:build !headless

package device

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Device streams a Source to the default output device. Only one Device
// can be open per process.
type Device struct {
	ctx    *oto.Context
	player *oto.Player
	mutex  sync.Mutex // Only for control operations; the player reads lock-free
	paused bool
}

// Open starts a paused device pulling samples from src.
func Open(src Source, opts Options) (*Device, error) {
	rate := opts.rate(src)
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   opts.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening audio device: %w", err)
	}
	<-ready

	return &Device{
		ctx:    ctx,
		player: ctx.NewPlayer(newReader(src, rate, opts.BufferSize)),
		paused: true,
	}, nil
}

// Resume starts or continues playback.
func (d *Device) Resume() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.paused && d.player != nil {
		d.player.Play()
		d.paused = false
	}
}

// Pause stops pulling samples without losing the source's position.
func (d *Device) Pause() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.paused && d.player != nil {
		d.player.Pause()
		d.paused = true
	}
}

func (d *Device) Paused() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.paused
}

func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	d.paused = true
	if err != nil {
		return fmt.Errorf("error closing audio player: %w", err)
	}
	return nil
}
