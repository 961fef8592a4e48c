//go:build headless

package device

import "sync"

// Device is the headless stand-in for machines without audio hardware.
// Nothing pulls samples on its own; call Pump to drain the source.
type Device struct {
	reader *reader
	buf    []byte
	mutex  sync.Mutex
	paused bool
}

func Open(src Source, opts Options) (*Device, error) {
	return &Device{
		reader: newReader(src, opts.rate(src), opts.BufferSize),
		paused: true,
	}, nil
}

// Pump pulls n samples from the source as the real device would and
// returns their bytes. A paused or closed device returns nil.
func (d *Device) Pump(n int) []byte {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.paused || d.reader == nil {
		return nil
	}
	if cap(d.buf) < n*2 {
		d.buf = make([]byte, n*2)
	}
	buf := d.buf[:n*2]
	d.reader.Read(buf)
	return buf
}

func (d *Device) Resume() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.reader != nil {
		d.paused = false
	}
}

func (d *Device) Pause() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.paused = true
}

func (d *Device) Paused() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.paused
}

func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.reader = nil
	d.paused = true
	return nil
}
