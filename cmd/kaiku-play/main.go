package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhalonen/kaiku"
	"github.com/jhalonen/kaiku/codec"
	"github.com/jhalonen/kaiku/engine"
	"github.com/jhalonen/kaiku/synth"
	"github.com/jhalonen/kaiku/version"
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the command was run.")
	play := flag.Bool("p", false, "Play the input mixes (default behaviour when no other output is defined).")
	rawOut := flag.Bool("r", false, "Output the rendered mix as a .raw file, stereo float32 by default.")
	wavOut := flag.Bool("w", false, "Output the rendered mix as a .wav file, stereo float32 by default.")
	midiOut := flag.Bool("m", false, "Output the mix as a .mid file.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut && !*midiOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	var eng *engine.Engine
	if *play {
		var err error
		eng, err = engine.New(engine.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open the audio device: %v\n", err)
			os.Exit(1)
		}
		defer eng.Close()
	}
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				_, err := os.Stdout.Write(contents)
				return err
			}
			_, name := filepath.Split(filename)
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			f := filepath.Join(dir, name)
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		mix, err := kaiku.LoadMix(filename)
		if err != nil {
			return err
		}
		if err := linkSamples(&mix, filepath.Dir(filename)); err != nil {
			return err
		}
		if *rawOut || *wavOut {
			buffer := synth.Render(&mix, kaiku.SampleRate)
			if *rawOut {
				raw, err := kaiku.Raw(buffer, *pcm)
				if err != nil {
					return fmt.Errorf("could not generate .raw file: %v", err)
				}
				if err := output(".raw", raw); err != nil {
					return fmt.Errorf("error outputting .raw file: %v", err)
				}
			}
			if *wavOut {
				wav, err := kaiku.Wav(buffer, kaiku.SampleRate, 2, *pcm)
				if err != nil {
					return fmt.Errorf("could not generate .wav file: %v", err)
				}
				if err := output(".wav", wav); err != nil {
					return fmt.Errorf("error outputting .wav file: %v", err)
				}
			}
		}
		if *midiOut {
			var buf bytes.Buffer
			if err := kaiku.WriteMIDI(&mix, &buf); err != nil {
				return fmt.Errorf("could not generate .mid file: %v", err)
			}
			if err := output(".mid", buf.Bytes()); err != nil {
				return fmt.Errorf("error outputting .mid file: %v", err)
			}
		}
		if *play {
			if _, err := eng.PlayAtRate(&mix, 1); err != nil {
				return err
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			var files []string
			for _, pattern := range []string{"*.json", "*.yml", "*.yaml"} {
				matches, err := filepath.Glob(filepath.Join(param, pattern))
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not glob the path %v: %v\n", param, err)
					retval = 1
					continue
				}
				files = append(files, matches...)
			}
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

// linkSamples loads the sample assets a deserialized mix refers to by path.
// Relative paths are resolved against the mix file's directory.
func linkSamples(m *kaiku.Mix, baseDir string) error {
	for b := range m.Buses {
		for t := range m.Buses[b].Tracks {
			events := m.Buses[b].Tracks[t].Events
			for i := range events {
				se := events[i].Sample
				if events[i].Kind != kaiku.EventSample || se == nil || se.Sample != nil || se.Path == "" {
					continue
				}
				path := se.Path
				if !filepath.IsAbs(path) {
					path = filepath.Join(baseDir, path)
				}
				sample, err := codec.LoadSample(path)
				if err != nil {
					return err
				}
				se.Sample = sample
			}
		}
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Kaiku command line utility for playing and exporting .yml/.json mix files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
