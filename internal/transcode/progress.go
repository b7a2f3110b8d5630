package transcode

import (
	"regexp"
	"strconv"
	"time"
)

var (
	reDuration = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	reTime     = regexp.MustCompile(`time=\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// progressTracker turns ffmpeg stderr lines into a 0..1 ratio. It is
// telemetry only: lines it cannot parse are ignored.
type progressTracker struct {
	total time.Duration
	emit  func(float64)
}

func newProgressTracker(emit func(float64)) *progressTracker {
	return &progressTracker{emit: emit}
}

// Line consumes one stderr line.
func (t *progressTracker) Line(line string) {
	if t.emit == nil {
		return
	}
	if t.total == 0 {
		if d, ok := matchClock(reDuration, line); ok && d > 0 {
			t.total = d
		}
		return
	}
	pos, ok := matchClock(reTime, line)
	if !ok {
		return
	}
	ratio := float64(pos) / float64(t.total)
	switch {
	case ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}
	t.emit(ratio)
}

// matchClock extracts an HH:MM:SS.ff clock from line.
func matchClock(re *regexp.Regexp, line string) (time.Duration, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	sec, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	d := time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(sec*float64(time.Second))
	return d, true
}
