package mixer

import (
	"github.com/QEStudios/ProceduralAudio/music"
	"github.com/QEStudios/ProceduralAudio/sound"
)

type persistRequest struct {
	data   *sound.Data
	play   bool
	loop   bool
	volume float64
	reset  bool
}

type oneshotRequest struct {
	data   *sound.Data
	volume float64
}

// Soundboard collects one game tick's worth of audio requests. Game logic
// fills it in and hands it to Mixer.Apply, which applies everything at
// once and clears it for the next tick.
//
// Persisted sounds are requested again every tick for as long as they
// should stay alive; a persisted sound missing from a tick's board is
// stopped.
type Soundboard struct {
	changeMusic bool
	music       *music.Score
	fadeOut     float64

	setFlag bool
	flag    int

	persist  []persistRequest
	oneshots []oneshotRequest
}

// ChangeMusic fades out the current score over fadeOutSeconds and then
// starts score. A nil score fades to silence; asking for the score that
// is already playing cancels any fade in progress.
func (b *Soundboard) ChangeMusic(score *music.Score, fadeOutSeconds float64) {
	b.changeMusic = true
	b.music = score
	b.fadeOut = fadeOutSeconds
}

// SetMusicFlag updates the music flag. Set in the same tick as a music
// change, the new value only takes effect once the fade completes.
func (b *Soundboard) SetMusicFlag(v int) {
	b.setFlag = true
	b.flag = v
}

// Persist keeps data playing across ticks. play=false pauses it in place,
// and reset restarts it from the beginning.
func (b *Soundboard) Persist(data *sound.Data, play, loop bool, volume float64, reset bool) {
	if data == nil {
		return
	}
	b.persist = append(b.persist, persistRequest{data: data, play: play, loop: loop, volume: volume, reset: reset})
}

// PlayOnce plays data once from the start.
func (b *Soundboard) PlayOnce(data *sound.Data, volume float64) {
	if data == nil {
		return
	}
	b.oneshots = append(b.oneshots, oneshotRequest{data: data, volume: volume})
}

// clear zeroes the board, keeping the request slices' storage.
func (b *Soundboard) clear() {
	*b = Soundboard{persist: b.persist[:0], oneshots: b.oneshots[:0]}
}

func (b *Soundboard) findPersist(data *sound.Data) *persistRequest {
	for i := range b.persist {
		if b.persist[i].data == data {
			return &b.persist[i]
		}
	}
	return nil
}
