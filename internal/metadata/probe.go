package metadata

import (
	"os/exec"
	"strings"
	"sync"
	"time"
)

// FFProbe shells out to ffprobe to read a container's creation_time. It is
// the default Prober when the runtime config enables probing.
type FFProbe struct {
	once      sync.Once
	available bool
}

// NewFFProbe returns the probe; availability is checked lazily on first use.
func NewFFProbe() *FFProbe {
	return &FFProbe{}
}

// Available reports whether an ffprobe binary responds on this machine.
func (p *FFProbe) Available() bool {
	p.once.Do(func() {
		p.available = exec.Command("ffprobe", "-version").Run() == nil
	})
	return p.available
}

// CaptureTime implements Prober.
func (p *FFProbe) CaptureTime(path string) (time.Time, bool) {
	if !p.Available() {
		return time.Time{}, false
	}
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format_tags=creation_time:stream_tags=creation_time",
		"-of", "default=nokey=1:noprint_wrappers=1",
		path,
	).Output()
	if err != nil {
		return time.Time{}, false
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if t, ok := parseLooseDateTime(line); ok {
			return t, true
		}
		for _, match := range isoDateTimeRE.FindAllString(line, -1) {
			if t, ok := parseLooseDateTime(match); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
