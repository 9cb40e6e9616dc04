package engine

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// progressReader consumes ffmpeg's -progress key=value stream. Each block ends
// with a progress=continue|end line.
type progressReader struct {
	duration time.Duration
	emit     func(Progress)
	sent     bool
	last     Progress
}

func newProgressReader(duration time.Duration, emit func(Progress)) *progressReader {
	return &progressReader{duration: duration, emit: emit}
}

func (p *progressReader) consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	return scanner.Err()
}

func (p *progressReader) line(raw string) {
	key, value, ok := strings.Cut(strings.TrimSpace(raw), "=")
	if !ok {
		return
	}
	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || micros < 0 {
			return
		}
		p.position(time.Duration(micros) * time.Microsecond)
	case "progress":
		if strings.TrimSpace(value) == "end" {
			p.send(Fraction(1))
		}
	}
}

func (p *progressReader) position(at time.Duration) {
	if p.duration <= 0 {
		p.send(Indeterminate())
		return
	}
	p.send(Fraction(float64(at) / float64(p.duration)))
}

// send drops repeats so the orchestrator only sees changes.
func (p *progressReader) send(update Progress) {
	if p.emit == nil {
		return
	}
	if p.sent && update == p.last {
		return
	}
	p.sent = true
	p.last = update
	p.emit(update)
}

// tailBuffer keeps the last n non-empty lines written to it.
type tailBuffer struct {
	max   int
	lines []string
	part  string
}

func newTailBuffer(max int) *tailBuffer {
	if max <= 0 {
		max = 20
	}
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	chunk := t.part + string(p)
	parts := strings.Split(chunk, "\n")
	t.part = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		t.add(line)
	}
	return len(p), nil
}

func (t *tailBuffer) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailBuffer) String() string {
	lines := t.lines
	if rest := strings.TrimSpace(t.part); rest != "" {
		lines = append(append([]string(nil), lines...), rest)
	}
	return strings.Join(lines, "\n")
}
