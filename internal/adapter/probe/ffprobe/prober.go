// Package ffprobe reads audio duration with the ffprobe binary.
package ffprobe

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/torisu/jimaku/internal/port"
)

type Prober struct{}

func NewProber() port.AudioProber {
	return &Prober{}
}

func (p *Prober) Duration(path string) (float64, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
	cmd := exec.Command("ffprobe", args...)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	if probe.Format.Duration == "" || probe.Format.Duration == "N/A" {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}
	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}
	return seconds, nil
}

var _ port.AudioProber = (*Prober)(nil)
