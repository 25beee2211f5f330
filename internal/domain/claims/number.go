package claims

import (
	"regexp"
	"sync"
	"time"
)

const numberLayout = "20060102150405"

var numberPattern = regexp.MustCompile(`^CLM[0-9]{14}$`)

// ValidNumber reports whether s has the CLM + 14 digit form.
func ValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}

// NumberGenerator issues claim numbers of the form CLM + YYYYMMDDHHMMSS.
// Numbers are strictly increasing within a process: when the clock has not
// moved past the last issued second, the next second is used instead. The
// database unique constraint catches collisions with other processes and
// Observe moves the generator past them.
type NumberGenerator struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
	loc  *time.Location
}

func NewNumberGenerator(now func() time.Time, loc *time.Location) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &NumberGenerator{now: now, loc: loc}
}

func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now().In(g.loc).Truncate(time.Second)
	if !t.After(g.last) {
		t = g.last.Add(time.Second)
	}
	g.last = t
	return "CLM" + t.Format(numberLayout)
}

// Observe records a number already taken elsewhere so that Next issues a
// later one.
func (g *NumberGenerator) Observe(number string) {
	if !ValidNumber(number) {
		return
	}
	t, err := time.ParseInLocation(numberLayout, number[3:], g.loc)
	if err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.After(g.last) {
		g.last = t
	}
}
