package scanner

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Prober reports container-level metadata for a media file. It exists only to
// backfill duration when the metadata provider supplies none.
type Prober interface {
	Probe(path string) (*ProbeResult, error)
}

type ProbeResult struct {
	Duration   float64 // seconds
	VideoCodec string
	AudioCodec string
}

// FFprobe shells out to the ffprobe binary.
type FFprobe struct {
	binPath string
}

func NewFFprobe(binPath string) *FFprobe {
	if binPath == "" {
		binPath = "ffprobe"
	}
	return &FFprobe{binPath: binPath}
}

type ffprobeOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (f *FFprobe) Probe(path string) (*ProbeResult, error) {
	cmd := exec.Command(f.binPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var data ffprobeOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if result.VideoCodec == "" {
				result.VideoCodec = s.CodecName
			}
		case "audio":
			if result.AudioCodec == "" {
				result.AudioCodec = s.CodecName
			}
		}
	}
	if data.Format.Duration != "" {
		result.Duration, _ = strconv.ParseFloat(data.Format.Duration, 64)
	}
	return result, nil
}
