// Package audio reads the length and tags of the track a transcript is
// played against.
package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

var ErrNoAudioStream = errors.New("no audio stream found")

type Metadata struct {
	Filename   string
	Title      string
	Artist     string
	Album      string
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
	Format     string
}

// DurationMs is the track length in whole milliseconds.
func (m *Metadata) DurationMs() int64 {
	return m.Duration.Milliseconds()
}

// Read returns metadata for path. WAV files are decoded directly; anything
// else goes through ffprobe.
func Read(ctx context.Context, path string) (*Metadata, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return ReadWAV(path)
	}
	return ReadMetadataFFmpeg(ctx, path)
}

// ReadWAV reads the header of a WAV file. Tags are not available.
func ReadWAV(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	duration, err := decoder.Duration()
	if err != nil {
		return nil, fmt.Errorf("reading wav duration: %w", err)
	}

	return &Metadata{
		Filename:   filepath.Base(path),
		Duration:   duration,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
		Format:     "wav",
	}, nil
}

type ffprobeOutput struct {
	Format struct {
		Filename string            `json:"filename"`
		Duration string            `json:"duration"`
		Format   string            `json:"format_name"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType     string `json:"codec_type"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitsPerSample int    `json:"bits_per_sample"`
}

func (p *ffprobeOutput) firstAudioStream() *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	return nil
}

// ReadMetadataFFmpeg runs ffprobe on path. Without a deadline on ctx the
// ffprobe run is limited to 5 seconds.
func ReadMetadataFFmpeg(ctx context.Context, path string) (*Metadata, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	meta, err := parseFFprobe(out)
	if err != nil {
		return nil, err
	}
	meta.Filename = filepath.Base(path)
	return meta, nil
}

func parseFFprobe(out []byte) (*Metadata, error) {
	var info ffprobeOutput
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("decoding ffprobe output: %w", err)
	}

	audioStream := info.firstAudioStream()
	if audioStream == nil {
		return nil, ErrNoAudioStream
	}

	seconds, _ := strconv.ParseFloat(info.Format.Duration, 64)
	sampleRate, _ := strconv.Atoi(audioStream.SampleRate)

	meta := &Metadata{
		Duration:   time.Duration(seconds * float64(time.Second)),
		SampleRate: sampleRate,
		Channels:   audioStream.Channels,
		BitDepth:   audioStream.BitsPerSample,
		Format:     info.Format.Format,
	}

	// ffprobe reports tag keys in whatever case the container used.
	for k, v := range info.Format.Tags {
		switch strings.ToLower(k) {
		case "title":
			meta.Title = v
		case "artist":
			meta.Artist = v
		case "album":
			meta.Album = v
		}
	}

	return meta, nil
}
