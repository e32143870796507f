package scoring

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/gigmatch/internal/domain/model"
)

const (
	minutesPerDay  = 24 * 60
	minutesPerWeek = 7 * minutesPerDay
)

// interval is a half-open [start, end) range of UTC minutes within one week.
type interval struct {
	start, end int
}

// offsetMinutes returns the UTC offset of loc at ref.
func offsetMinutes(loc *time.Location, ref time.Time) int {
	_, off := ref.In(loc).Zone()
	return off / 60
}

// parseClock parses "HH:MM"; "24:00" is accepted as end of day.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q is out of range", s)
	}
	return h*60 + m, nil
}

// toUTC converts local weekly windows to merged UTC intervals. A window that
// crosses the week boundary after shifting is split in two.
func toUTC(windows []model.Window, offset int) ([]interval, error) {
	out := make([]interval, 0, len(windows))
	for i, w := range windows {
		if w.Day < 0 || w.Day > 6 {
			return nil, fmt.Errorf("window %d: day %d outside 0-6", i, w.Day)
		}
		start, err := parseClock(w.Start)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		end, err := parseClock(w.End)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		if end <= start {
			return nil, fmt.Errorf("window %d: end %s is not after start %s", i, w.End, w.Start)
		}

		s := mod(w.Day*minutesPerDay+start-offset, minutesPerWeek)
		e := s + (end - start)
		if e <= minutesPerWeek {
			out = append(out, interval{s, e})
			continue
		}
		out = append(out, interval{s, minutesPerWeek}, interval{0, e - minutesPerWeek})
	}
	return merge(out), nil
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}

// merge sorts and coalesces overlapping or touching intervals.
func merge(in []interval) []interval {
	if len(in) == 0 {
		return in
	}
	sort.Slice(in, func(i, j int) bool { return in[i].start < in[j].start })
	out := []interval{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if iv.start <= last.end {
			if iv.end > last.end {
				last.end = iv.end
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func totalMinutes(in []interval) int {
	var n int
	for _, iv := range in {
		n += iv.end - iv.start
	}
	return n
}

// overlapMinutes sums the intersection of two merged, sorted interval lists.
func overlapMinutes(a, b []interval) int {
	var n, i, j int
	for i < len(a) && j < len(b) {
		lo := max(a[i].start, b[j].start)
		hi := min(a[i].end, b[j].end)
		if hi > lo {
			n += hi - lo
		}
		if a[i].end < b[j].end {
			i++
		} else {
			j++
		}
	}
	return n
}
