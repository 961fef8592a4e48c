package notation

import "strings"

// Frequencies of the twelve pitch classes in octave 0, starting at C.
var baseFrequencies = [12]float64{
	16.35160, 17.32391, 18.35405, 19.44544, 20.60172, 21.82676,
	23.12465, 24.49971, 25.95654, 27.50000, 29.13524, 30.86771,
}

const (
	maxOctave   = 8
	maxSemitone = (maxOctave+1)*12 - 1
)

var noteBase = map[byte]int{
	'c': 0,
	'd': 2,
	'e': 4,
	'f': 5,
	'g': 7,
	'a': 9,
	'b': 11,
}

// Order in which a key signature adds sharps, and flats.
const (
	sharpOrder = "fcgdaeb"
	flatOrder  = "beadgcf"
)

// keyAccidental returns the accidental a key signature applies to a plain
// pitch letter. key > 0 counts sharps and key < 0 counts flats.
func keyAccidental(letter byte, key int) int {
	switch {
	case key > 0:
		if i := strings.IndexByte(sharpOrder, letter); i >= 0 && i < key {
			return 1
		}
	case key < 0:
		if i := strings.IndexByte(flatOrder, letter); i >= 0 && i < -key {
			return -1
		}
	}
	return 0
}

// semitoneFrequency converts a semitone index counted from C0 into Hz.
func semitoneFrequency(semitone int) float64 {
	return baseFrequencies[semitone%12] * float64(int(1)<<(semitone/12))
}

// durationCodes maps each duration letter to its length in whole notes.
var durationCodes = map[byte]float64{
	'w': 1,
	'h': 1.0 / 2,
	'q': 1.0 / 4,
	'e': 1.0 / 8,
	's': 1.0 / 16,
	't': 1.0 / 32,
	'x': 1.0 / 64,
}

func isDurationCode(c byte) bool {
	_, ok := durationCodes[c]
	return ok
}

func isPitchLetter(c byte) bool {
	_, ok := noteBase[c]
	return ok
}

// isSeparator reports whether c ends a note on a track line.
func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '|', '\'':
		return true
	default:
		return false
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
