package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/QEStudios/ProceduralAudio/device"
	"github.com/QEStudios/ProceduralAudio/export"
	"github.com/QEStudios/ProceduralAudio/mixer"
	"github.com/QEStudios/ProceduralAudio/music"
	"github.com/QEStudios/ProceduralAudio/parser/notation"
	"github.com/QEStudios/ProceduralAudio/sound"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
)

var logger *log.Logger

// Extensions accepted for score documents.
var scoreExtensions = []string{".txt", ".score"}

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var (
		seconds float64
		outPath string
		effect  string
		dump    bool
		play    bool
		list    bool
		verbose bool
	)
	pflag.Float64VarP(&seconds, "seconds", "t", 0, "seconds to render (default: one pass through the score)")
	pflag.StringVarP(&outPath, "out", "o", "", "output .wav path (default: next to the input)")
	pflag.StringVarP(&effect, "sound", "e", "", "render the named sound effect instead of a score")
	pflag.BoolVarP(&dump, "dump", "d", false, "dump the parsed score structure")
	pflag.BoolVarP(&play, "play", "p", false, "play through the default audio device")
	pflag.BoolVar(&list, "list", false, "list the built-in sound effects and drums")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "print the parsed score")
	pflag.Parse()

	if list {
		fmt.Println("Sound effects:", strings.Join(sound.EffectNames(), ", "))
		fmt.Println("Drums:")
		for i, name := range sound.DrumNames {
			fmt.Printf("  x%d  %s\n", i, name)
		}
		return
	}

	var samples []int16
	var score *music.Score
	var sfx *sound.Data
	var path string

	if effect != "" {
		sfx, err = sound.NewLibrary(nil).Get(effect)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		logger.Printf("Synthesized %q: %d samples (%.2fs)", effect, sfx.Len(), sfx.Seconds())
		samples = sfx.Samples()
		path = filepath.Join(cwd, effect+".wav")
	} else {
		// Get the path of the score document.
		path, err = choosePath(cwd, pflag.Args())
		if err != nil {
			if errors.Is(err, dialog.ErrCancelled) {
				logger.Printf("User cancelled the file dialog")
				os.Exit(1)
			}
			logger.Fatalf("failed to determine file path: %v", err)
		}

		score, err = parseScore(path)
		if err != nil {
			logger.Fatalf("parse error: %v", err)
		}
		if verbose {
			fmt.Println(score)
		}
		if dump {
			spew.Dump(score)
		}

		if seconds <= 0 {
			seconds = score.Duration()
		}
		logger.Printf("Rendering %.2fs of %s", seconds, filepath.Base(path))
		samples = export.RenderScore(score, seconds, sound.SampleRate)
	}

	if play {
		if err := playLive(score, sfx, seconds); err != nil {
			logger.Fatalf("playback error: %v", err)
		}
		if outPath == "" {
			return
		}
	}

	// Write to a .wav file in the same directory as the source file.
	if outPath == "" {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
	}
	if err := export.WriteFile(outPath, sound.SampleRate, samples); err != nil {
		logger.Fatalf("Error writing output file: %v", err)
	}
	logger.Printf("Wrote %s", outPath)
}

func parseScore(path string) (*music.Score, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	result, err := notation.NewParser(file, logger).Parse(sound.DrumKit())
	if err != nil {
		return nil, err
	}
	return result.Score, nil
}

// playLive plays a score, or a single sound effect, through the mixer and
// the audio device, blocking until it is done.
func playLive(score *music.Score, sfx *sound.Data, seconds float64) error {
	m := mixer.New(mixer.Config{
		SampleRate:  sound.SampleRate,
		MusicVolume: 1,
		SoundVolume: 1,
		Logger:      logger,
	})
	var board mixer.Soundboard
	if score != nil {
		board.ChangeMusic(score, 0)
	}
	if sfx != nil {
		board.PlayOnce(sfx, 1)
		if seconds <= 0 {
			seconds = sfx.Seconds()
		}
	}
	m.Apply(&board)

	dev, err := device.Open(m, device.DefaultOptions())
	if err != nil {
		return err
	}
	defer dev.Close()

	dev.Resume()
	time.Sleep(time.Duration(seconds*float64(time.Second)) + 100*time.Millisecond)
	dev.Pause()
	return nil
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		absPath, err := filepath.Abs(args[0])
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open score").
		Filter("Score documents (*.txt, *.score)", "txt", "score").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Caller will check for dialog.ErrCancelled.
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}
	if absPath == "" {
		return "", dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath checks that p names an existing score document.
func validatePath(p string) error {
	if !slices.Contains(scoreExtensions, strings.ToLower(filepath.Ext(p))) {
		return fmt.Errorf("file must have one of the extensions %s", strings.Join(scoreExtensions, ", "))
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}
