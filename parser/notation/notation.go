package notation

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/QEStudios/ProceduralAudio/music"
	"github.com/QEStudios/ProceduralAudio/sound"
	"github.com/davecgh/go-spew/spew"
)

// Fixed capacities of a score document.
const (
	MaxSpecLength    = 64
	MaxParts         = 26
	MaxNotesPerTrack = 1024
)

// Directive ranges and defaults.
const (
	maxKey          = 7
	defaultTempo    = 120
	maxTempo        = 999
	maxTranspose    = 48
	maxLoudnessMult = 4

	defaultOctave = 4
	defaultWhole  = 1.0 / 4
)

type state int

const (
	stateBeginLine state = iota
	stateNewNote
	stateAdjustPitch
	stateBeginDuration
	stateAdjustDuration
	stateContinueDuration
	stateAfterDirective
	stateLineComment
)

var stateNames = [...]string{
	stateBeginLine:        "BeginLine",
	stateNewNote:          "NewNote",
	stateAdjustPitch:      "AdjustPitch",
	stateBeginDuration:    "BeginDuration",
	stateAdjustDuration:   "AdjustDuration",
	stateContinueDuration: "ContinueDuration",
	stateAfterDirective:   "AfterDirective",
	stateLineComment:      "LineComment",
}

func (s state) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// settings are the values directives control. Directives above the first
// part heading set the document defaults; inside a part they last until the
// next heading.
type settings struct {
	key       int
	tempo     float64
	transpose int
	loudness  float64
}

type noteKind int

const (
	kindTone noteKind = iota
	kindRest
	kindDrum
)

// pendingNote is the note being read, emitted once a separator ends it.
type pendingNote struct {
	kind          noteKind
	letter        byte
	accidental    int
	hasAccidental bool
	octave        int
	hasOctave     bool
	drum          int

	whole float64 // accumulated length in whole notes, 0 until a duration is read
	piece float64 // the last piece added, halved by every dot
	carry float64 // length up to the first tie; the next note on the track reuses it
}

type trackState struct {
	octave    int
	whole     float64
	drum      int // -1 until a drum has been played
	transpose int
	tie       *pendingNote // a tied note waiting for its continuation
}

func (ts *trackState) reset() {
	*ts = trackState{octave: defaultOctave, whole: defaultWhole, drum: -1}
}

type Parser struct {
	reader     *bufio.Reader
	logger     *log.Logger
	lineNumber int
	state      state
	kit        []*sound.Data

	haveHeader bool
	headerLine int
	spec       []byte // part names in playback order
	loopPoint  int

	parts     []music.Part
	partIndex map[byte]int
	partLines []int
	current   int // index into parts, -1 before the first heading

	defaults settings
	settings settings
	track    int // selected track, -1 when none
	tracks   [music.NumTracks]trackState
	pending  pendingNote

	// Collect any warnings whilst parsing.
	warnings []ParseWarning

	// Parsing can only be done once per Parser.
	used bool
}

type ParseResult struct {
	Score    *music.Score
	Warnings []ParseWarning
}

// NewParser creates a new parser to parse a score document.
func NewParser(r io.Reader, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	def := settings{tempo: defaultTempo, loudness: 1}
	return &Parser{
		reader:     bufio.NewReader(r),
		logger:     logger,
		lineNumber: 1,
		state:      stateBeginLine,
		partIndex:  make(map[byte]int),
		current:    -1,
		defaults:   def,
		settings:   def,
		track:      -1,
	}
}

// ParseString parses doc with a default logger and returns its score.
func ParseString(doc string, kit []*sound.Data) (*music.Score, error) {
	result, err := NewParser(strings.NewReader(doc), nil).Parse(kit)
	if err != nil {
		return nil, err
	}
	return result.Score, nil
}

// Parse reads the whole document and builds its score. Drum notes index
// into kit. Warnings are logged and returned alongside the score.
func (p *Parser) Parse(kit []*sound.Data) (*ParseResult, error) {
	result, err := p.parseInternal(kit)
	if err != nil {
		return nil, err
	}

	if len(result.Warnings) > 0 {
		p.logger.Println("Warnings produced while parsing score:")
		for _, warning := range result.Warnings {
			p.logger.Printf("line %d: %v\n", warning.Line, warning.Message)
		}
	}
	return result, nil
}

// addWarning adds to the list of warnings encountered when parsing.
func (p *Parser) addWarning(line int, format string, args ...any) {
	p.warnings = append(p.warnings, ParseWarning{
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) fatalf(reason error, format string, args ...any) error {
	return &ParseError{Line: p.lineNumber, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (p *Parser) parseInternal(kit []*sound.Data) (*ParseResult, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true
	p.kit = kit
	for i := range p.tracks {
		p.tracks[i].reset()
	}

	afterNewline := false
	for {
		c, err := p.reader.ReadByte()
		eof := err == io.EOF
		switch {
		case eof:
			// A final newline ends whatever the last line left open.
			c = '\n'
		case err != nil:
			return nil, fmt.Errorf("error while reading score: %w", err)
		case afterNewline:
			p.lineNumber++
		}
		afterNewline = c == '\n'

		for retry := true; retry; {
			var next state
			next, retry, err = p.step(c)
			if err != nil {
				return nil, err
			}
			p.state = next
		}

		if eof {
			break
		}
	}

	score, err := p.finish()
	if err != nil {
		return nil, err
	}
	return &ParseResult{Score: score, Warnings: p.warnings}, nil
}

// step is the transition function: it consumes c in the current state and
// returns the next state, and whether c must be read again in that state.
func (p *Parser) step(c byte) (state, bool, error) {
	switch p.state {
	case stateBeginLine:
		return p.beginLine(c)
	case stateNewNote:
		return p.newNote(c)
	case stateAdjustPitch:
		return p.adjustPitch(c)
	case stateBeginDuration:
		return p.beginDuration(c)
	case stateAdjustDuration:
		return p.adjustDuration(c)
	case stateContinueDuration:
		return p.continueDuration(c)
	case stateAfterDirective:
		return p.afterDirective(c)
	case stateLineComment:
		if c == '\n' {
			return stateBeginLine, false, nil
		}
		return stateLineComment, false, nil
	default:
		p.logger.Print(spew.Sdump(p.pending))
		return p.state, false, fmt.Errorf("line %d: internal error: unknown parser state %v", p.lineNumber, p.state)
	}
}

func (p *Parser) beginLine(c byte) (state, bool, error) {
	switch {
	case c == '\n' || isSpace(c):
		return stateBeginLine, false, nil
	case c == '%':
		return stateLineComment, false, nil
	case c == '@':
		if err := p.parseHeader(); err != nil {
			return p.state, false, err
		}
		return stateAfterDirective, false, nil
	case !p.haveHeader:
		return p.state, false, p.fatalf(ErrInvalidHeader, "document must start with @M, found %q", c)
	case c == '!':
		if err := p.parseHeading(); err != nil {
			return p.state, false, err
		}
		return stateAfterDirective, false, nil
	case c == '=':
		if err := p.parseDirective(); err != nil {
			return p.state, false, err
		}
		return stateAfterDirective, false, nil
	case c >= '0' && c <= '9':
		t := int(c - '1')
		if t < 0 || t >= music.NumTracks {
			return p.state, false, p.fatalf(ErrOutOfRange, "track %c, tracks are 1..%d", c, music.NumTracks)
		}
		if p.current < 0 {
			return p.state, false, p.fatalf(ErrStructure, "track line before the first part heading")
		}
		p.track = t
		return stateNewNote, false, nil
	default:
		return p.state, false, p.fatalf(ErrInvalidChar, "%q at the start of a line", c)
	}
}

func (p *Parser) afterDirective(c byte) (state, bool, error) {
	switch {
	case isSpace(c):
		return stateAfterDirective, false, nil
	case c == '%':
		return stateLineComment, false, nil
	case c == '\n':
		return stateBeginLine, false, nil
	default:
		return p.state, false, p.fatalf(ErrInvalidChar, "%q after directive", c)
	}
}

func (p *Parser) newNote(c byte) (state, bool, error) {
	ts := &p.tracks[p.track]
	switch {
	case c == '\n':
		return stateBeginLine, false, nil
	case isSeparator(c):
		return stateNewNote, false, nil
	case c == '%':
		return stateLineComment, false, nil
	case ts.tie != nil:
		p.pending = *ts.tie
		ts.tie = nil
		return stateContinueDuration, true, nil
	case c == 'r':
		p.pending = pendingNote{kind: kindRest}
		return stateAdjustPitch, false, nil
	case isPitchLetter(c):
		p.pending = pendingNote{kind: kindTone, letter: c}
		return stateAdjustPitch, false, nil
	case c == 'x':
		return p.readDrum()
	case strings.IndexByte("WLVDET", c) >= 0:
		if err := p.parseModifier(c); err != nil {
			return p.state, false, err
		}
		return stateNewNote, false, nil
	default:
		return p.state, false, p.fatalf(ErrInvalidChar, "%q at the start of a note", c)
	}
}

func (p *Parser) adjustPitch(c byte) (state, bool, error) {
	n := &p.pending
	switch {
	case n.kind == kindTone && !n.hasAccidental && !n.hasOctave && (c == '#' || c == 'b' || c == 'N'):
		n.hasAccidental = true
		switch c {
		case '#':
			n.accidental = 1
		case 'b':
			n.accidental = -1
		}
		return stateAdjustPitch, false, nil
	case n.kind == kindTone && !n.hasOctave && c >= '0' && c <= '9':
		octave := int(c - '0')
		if octave > maxOctave {
			return p.state, false, p.fatalf(ErrOutOfRange, "octave %d, octaves are 0..%d", octave, maxOctave)
		}
		n.octave = octave
		n.hasOctave = true
		return stateAdjustPitch, false, nil
	case isDurationCode(c):
		return stateBeginDuration, true, nil
	case isSeparator(c) || c == '%':
		if err := p.emit(); err != nil {
			return p.state, false, err
		}
		return stateNewNote, true, nil
	default:
		return p.state, false, p.fatalf(ErrInvalidChar, "%q in pitch", c)
	}
}

func (p *Parser) beginDuration(c byte) (state, bool, error) {
	switch {
	case isDurationCode(c):
		p.pending.piece = durationCodes[c]
		p.pending.whole = p.pending.piece
		return stateAdjustDuration, false, nil
	case isSeparator(c) || c == '%':
		if err := p.emit(); err != nil {
			return p.state, false, err
		}
		return stateNewNote, true, nil
	default:
		return p.state, false, p.fatalf(ErrInvalidChar, "%q where a duration was expected", c)
	}
}

func (p *Parser) adjustDuration(c byte) (state, bool, error) {
	n := &p.pending
	switch {
	case c == '.':
		n.piece /= 2
		n.whole += n.piece
		return stateAdjustDuration, false, nil
	case c == '3':
		n.whole *= 2.0 / 3
		n.piece *= 2.0 / 3
		return stateAdjustDuration, false, nil
	case c == '5':
		n.whole *= 4.0 / 5
		n.piece *= 4.0 / 5
		return stateAdjustDuration, false, nil
	case c == '+':
		if n.carry == 0 {
			n.carry = n.whole
		}
		return stateContinueDuration, false, nil
	case isSeparator(c) || c == '%':
		if err := p.emit(); err != nil {
			return p.state, false, err
		}
		return stateNewNote, true, nil
	default:
		return p.state, false, p.fatalf(ErrInvalidChar, "%q in duration", c)
	}
}

// continueDuration waits for the duration that completes a tie. The tie
// may continue on a later line, so at the end of a line the note is parked
// on its track until that track reaches its next note position.
func (p *Parser) continueDuration(c byte) (state, bool, error) {
	switch {
	case isDurationCode(c):
		p.pending.piece = durationCodes[c]
		p.pending.whole += p.pending.piece
		return stateAdjustDuration, false, nil
	case c == '\n' || c == '%':
		tie := p.pending
		p.tracks[p.track].tie = &tie
		if c == '%' {
			return stateLineComment, false, nil
		}
		return stateBeginLine, false, nil
	case isSeparator(c):
		return stateContinueDuration, false, nil
	default:
		return p.state, false, p.fatalf(ErrInvalidChar, "%q where a tied duration was expected", c)
	}
}

// readDrum reads the optional kit index following an x.
func (p *Parser) readDrum() (state, bool, error) {
	ts := &p.tracks[p.track]
	digits, err := p.readDigits()
	if err != nil {
		return p.state, false, err
	}
	index := ts.drum
	if digits != "" {
		index, err = strconv.Atoi(digits)
		if err != nil {
			return p.state, false, p.fatalf(ErrOutOfRange, "drum %s", digits)
		}
	}
	if index < 0 {
		return p.state, false, p.fatalf(ErrInvalidChar, "x without a drum index and no previous drum on track %d", p.track+1)
	}
	if index >= len(p.kit) {
		return p.state, false, p.fatalf(ErrOutOfRange, "drum %d, the kit has %d drums", index, len(p.kit))
	}
	ts.drum = index
	p.pending = pendingNote{kind: kindDrum, drum: index}
	return stateBeginDuration, false, nil
}

// emit resolves the pending note against the track and part settings and
// appends it to the selected track.
func (p *Parser) emit() error {
	n := &p.pending
	ts := &p.tracks[p.track]

	if n.whole == 0 {
		n.whole = ts.whole
	}
	if n.carry == 0 {
		n.carry = n.whole
	}
	ts.whole = n.carry
	seconds := n.whole * 240 / p.settings.tempo

	var note music.Note
	switch n.kind {
	case kindRest:
		note = music.Rest{Duration: seconds}
	case kindDrum:
		note = music.Drum{Sound: p.kit[n.drum], Duration: seconds}
	case kindTone:
		if n.hasOctave {
			ts.octave = n.octave
		}
		accidental := n.accidental
		if !n.hasAccidental {
			accidental = keyAccidental(n.letter, p.settings.key)
		}
		semitone := ts.octave*12 + noteBase[n.letter] + accidental + p.settings.transpose + ts.transpose
		if semitone < 0 || semitone > maxSemitone {
			return p.fatalf(ErrOutOfRange, "pitch %c%d transposed outside octaves 0..%d", n.letter, ts.octave, maxOctave)
		}
		note = music.Tone{Frequency: semitoneFrequency(semitone), Duration: seconds}
	}
	return p.appendNote(note)
}

func (p *Parser) appendNote(note music.Note) error {
	track := &p.parts[p.current].Tracks[p.track]
	if len(track.Notes) >= MaxNotesPerTrack {
		return p.fatalf(ErrCapacity, "more than %d notes on track %d", MaxNotesPerTrack, p.track+1)
	}
	track.Notes = append(track.Notes, note)
	return nil
}

// readToken reads up to the next separator or comment, which is left unread.
func (p *Parser) readToken() (string, error) {
	var sb strings.Builder
	for {
		c, err := p.reader.ReadByte()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("error while reading score: %w", err)
		}
		if isSeparator(c) || c == '%' {
			return sb.String(), p.reader.UnreadByte()
		}
		sb.WriteByte(c)
	}
}

func (p *Parser) readDigits() (string, error) {
	var sb strings.Builder
	for {
		c, err := p.reader.ReadByte()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("error while reading score: %w", err)
		}
		if c < '0' || c > '9' {
			return sb.String(), p.reader.UnreadByte()
		}
		sb.WriteByte(c)
	}
}

func (p *Parser) skipSpaces() error {
	for {
		c, err := p.reader.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error while reading score: %w", err)
		}
		if !isSpace(c) {
			return p.reader.UnreadByte()
		}
	}
}

// parseHeader reads the rest of an @M "SPEC" line. A | marks the loop
// point at the part that follows it.
func (p *Parser) parseHeader() error {
	if p.haveHeader {
		return p.fatalf(ErrInvalidHeader, "duplicate header")
	}
	tag, err := p.readToken()
	if err != nil {
		return err
	}
	if tag != "M" {
		return p.fatalf(ErrInvalidHeader, "expected @M, found @%s", tag)
	}
	if err := p.skipSpaces(); err != nil {
		return err
	}
	if c, err := p.reader.ReadByte(); err != nil || c != '"' {
		if err == nil {
			p.reader.UnreadByte()
		}
		return p.fatalf(ErrInvalidHeader, "expected a quoted part list")
	}

	loop := -1
	for {
		c, err := p.reader.ReadByte()
		if err == io.EOF || (err == nil && c == '\n') {
			if err == nil {
				p.reader.UnreadByte()
			}
			return p.fatalf(ErrMissingQuote, "part list is not closed")
		}
		if err != nil {
			return fmt.Errorf("error while reading score: %w", err)
		}
		if c == '"' {
			break
		}
		switch {
		case c == '|':
			if loop >= 0 {
				return p.fatalf(ErrInvalidHeader, "more than one loop marker")
			}
			loop = len(p.spec)
		case c >= 'A' && c <= 'Z':
			if len(p.spec) >= MaxSpecLength {
				return p.fatalf(ErrCapacity, "more than %d parts in the part list", MaxSpecLength)
			}
			p.spec = append(p.spec, c)
		default:
			return p.fatalf(ErrInvalidHeader, "invalid part name %q", c)
		}
	}

	if len(p.spec) == 0 {
		return p.fatalf(ErrInvalidHeader, "empty part list")
	}
	if loop == len(p.spec) {
		return p.fatalf(ErrInvalidHeader, "loop marker must come before a part")
	}
	p.loopPoint = max(loop, 0)
	p.haveHeader = true
	p.headerLine = p.lineNumber
	return nil
}

// parseHeading reads the rest of a !Part X line and starts that part.
func (p *Parser) parseHeading() error {
	word, err := p.readToken()
	if err != nil {
		return err
	}
	if word != "Part" {
		return p.fatalf(ErrInvalidDirective, "unknown heading !%s", word)
	}
	if err := p.skipSpaces(); err != nil {
		return err
	}
	name, err := p.readToken()
	if err != nil {
		return err
	}
	if len(name) != 1 || name[0] < 'A' || name[0] > 'Z' {
		return p.fatalf(ErrInvalidDirective, "part name %q must be one letter A..Z", name)
	}
	if _, seen := p.partIndex[name[0]]; seen {
		return p.fatalf(ErrStructure, "part %s declared twice", name)
	}
	if len(p.parts) >= MaxParts {
		return p.fatalf(ErrCapacity, "more than %d parts", MaxParts)
	}
	if err := p.finishPart(); err != nil {
		return err
	}

	p.partIndex[name[0]] = len(p.parts)
	p.parts = append(p.parts, music.Part{Name: name[0]})
	p.partLines = append(p.partLines, p.lineNumber)
	p.current = len(p.parts) - 1
	p.settings = p.defaults
	p.track = -1
	for i := range p.tracks {
		p.tracks[i].reset()
	}
	return nil
}

// finishPart checks the part being closed for unfinished ties and tracks
// of unequal length.
func (p *Parser) finishPart() error {
	if p.current < 0 {
		return nil
	}
	part := &p.parts[p.current]
	for i := range p.tracks {
		if p.tracks[i].tie != nil {
			return p.fatalf(ErrStructure, "tie on track %d of part %c is never continued", i+1, part.Name)
		}
	}

	longest, shortest := 0.0, -1.0
	for i := range part.Tracks {
		d := part.Tracks[i].Duration()
		if d == 0 {
			continue
		}
		longest = max(longest, d)
		if shortest < 0 || d < shortest {
			shortest = d
		}
	}
	if shortest >= 0 && longest-shortest > 1e-9 {
		p.addWarning(p.partLines[p.current], "tracks of part %c have unequal lengths (%.3fs to %.3fs)", part.Name, shortest, longest)
	}
	return nil
}

// parseDirective reads the rest of an =name value line.
func (p *Parser) parseDirective() error {
	name, err := p.readToken()
	if err != nil {
		return err
	}
	if err := p.skipSpaces(); err != nil {
		return err
	}
	value, err := p.readToken()
	if err != nil {
		return err
	}

	target := &p.settings
	if p.current < 0 {
		target = &p.defaults
		defer func() { p.settings = p.defaults }()
	}

	switch name {
	case "key":
		key, err := p.intArg(name, value, -maxKey, maxKey)
		if err != nil {
			return err
		}
		target.key = key
	case "tempo":
		tempo, err := p.intArg(name, value, 1, maxTempo)
		if err != nil {
			return err
		}
		target.tempo = float64(tempo)
	case "transpose":
		transpose, err := p.intArg(name, value, -maxTranspose, maxTranspose)
		if err != nil {
			return err
		}
		target.transpose = transpose
	case "loudness":
		loudness, err := p.floatArgs(name, value, 1)
		if err != nil {
			return err
		}
		if loudness[0] < 0 || loudness[0] > maxLoudnessMult {
			return p.fatalf(ErrOutOfRange, "loudness %g, must be in 0..%d", loudness[0], maxLoudnessMult)
		}
		target.loudness = loudness[0]
	default:
		return p.fatalf(ErrInvalidDirective, "unknown directive =%s", name)
	}
	return nil
}

func (p *Parser) intArg(name, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, p.fatalf(ErrInvalidDirective, "=%s needs an integer, found %q", name, value)
	}
	if v < lo || v > hi {
		return 0, p.fatalf(ErrOutOfRange, "=%s %d, must be in %d..%d", name, v, lo, hi)
	}
	return v, nil
}

// floatArgs parses exactly n comma separated numbers.
func (p *Parser) floatArgs(name, value string, n int) ([]float64, error) {
	fields := strings.Split(value, ",")
	if len(fields) != n {
		return nil, p.fatalf(ErrInvalidDirective, "%s needs %d comma separated values, found %q", name, n, value)
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, p.fatalf(ErrInvalidDirective, "%s value %d (%q) is not a number", name, i+1, f)
		}
		out[i] = v
	}
	return out, nil
}

var waveCodes = map[byte]sound.Wave{
	'q': sound.Square,
	'w': sound.Sawtooth,
	's': sound.Sine,
	't': sound.Triangle,
	'n': sound.Noise,
	'b': sound.Wobble,
}

// parseModifier reads the arguments of a modifier whose letter has already
// been consumed. All but T become zero-length notes on the track.
func (p *Parser) parseModifier(letter byte) error {
	arg, err := p.readToken()
	if err != nil {
		return err
	}
	name := string(letter)

	switch letter {
	case 'W':
		if arg == "" {
			return p.fatalf(ErrInvalidDirective, "W needs a waveform")
		}
		kind, ok := waveCodes[arg[0]]
		if !ok {
			return p.fatalf(ErrInvalidDirective, "unknown waveform %q", arg[0])
		}
		duty := 50
		if len(arg) > 1 {
			duty, err = p.intArg(name, arg[1:], 1, 99)
			if err != nil {
				return err
			}
		}
		return p.appendNote(music.Waveform{Kind: kind, Duty: float64(duty) / 100})

	case 'L':
		v, err := p.floatArgs(name, arg, 1)
		if err != nil {
			return err
		}
		if v[0] < 0 || v[0] > 100 {
			return p.fatalf(ErrOutOfRange, "loudness %g%%, must be in 0..100", v[0])
		}
		return p.appendNote(music.Loudness{Level: v[0] / 100 * p.settings.loudness})

	case 'V', 'D':
		v, err := p.floatArgs(name, arg, 2)
		if err != nil {
			return err
		}
		if v[0] < 0 || v[0] > 1 || v[1] < 0 {
			return p.fatalf(ErrOutOfRange, "%s%s, depth must be in 0..1 and speed positive", name, arg)
		}
		if letter == 'V' {
			return p.appendNote(music.Vibrato{Depth: v[0], Speed: v[1]})
		}
		return p.appendNote(music.Dutymod{Depth: v[0], Speed: v[1]})

	case 'E':
		v, err := p.floatArgs(name, arg, 2)
		if err != nil {
			return err
		}
		if v[0] < 0 || v[1] < 0 || v[1] > 1 {
			return p.fatalf(ErrOutOfRange, "E%s, attack must be positive and decay in 0..1", arg)
		}
		return p.appendNote(music.Envelope{Attack: v[0], Decay: v[1]})

	case 'T':
		transpose, err := p.intArg(name, strings.TrimPrefix(arg, "+"), -maxTranspose, maxTranspose)
		if err != nil {
			return err
		}
		p.tracks[p.track].transpose = transpose
		return nil
	}
	return p.fatalf(ErrInvalidChar, "unknown modifier %c", letter)
}

// finish checks the document as a whole and assembles the score.
func (p *Parser) finish() (*music.Score, error) {
	if !p.haveHeader {
		return nil, p.fatalf(ErrInvalidHeader, "missing @M header")
	}
	if err := p.finishPart(); err != nil {
		return nil, err
	}

	score := &music.Score{
		Parts:     p.parts,
		Spec:      make([]int, len(p.spec)),
		LoopPoint: p.loopPoint,
	}
	used := make([]bool, len(p.parts))
	for i, name := range p.spec {
		idx, ok := p.partIndex[name]
		if !ok {
			return nil, &ParseError{Line: p.headerLine, Reason: ErrUndeclaredPart, Detail: fmt.Sprintf("part %c", name)}
		}
		if !used[idx] && p.parts[idx].Duration() == 0 {
			return nil, &ParseError{Line: p.partLines[idx], Reason: ErrStructure, Detail: fmt.Sprintf("part %c has no timed notes", name)}
		}
		score.Spec[i] = idx
		used[idx] = true
	}
	for i, u := range used {
		if !u {
			p.addWarning(p.partLines[i], "part %c is never played", p.parts[i].Name)
		}
	}

	if err := score.Validate(); err != nil {
		return nil, fmt.Errorf("line %d: internal error: %w", p.lineNumber, err)
	}
	return score, nil
}
