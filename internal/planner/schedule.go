package planner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/danieljhkim/edren/internal/fsops"
	"github.com/danieljhkim/edren/internal/inventory"
)

// TempMarker appears in every temporary name the scheduler generates.
const TempMarker = ".edren-"

const (
	maxTempAttempts = 16
	maxTempStemLen  = 200
)

// Step is one physical rename in a Schedule.
type Step struct {
	// Identity is the entry being moved
	Identity inventory.Identity

	// Source is the path the entry is at when the step runs
	Source string

	// Destination is the path the entry is at after the step
	Destination string

	// Temporary is true when Source or Destination is a generated temporary path
	Temporary bool
}

// Schedule is a Plan ordered for safe sequential execution.
type Schedule struct {
	// Steps is the total order of renames
	Steps []Step

	// Temporaries counts the cycles broken with a temporary path
	Temporaries int
}

// Scheduler orders plans. It is not safe for concurrent use.
type Scheduler struct {
	fs     fsops.FS
	suffix func() string
}

// NewScheduler creates a Scheduler whose temporary names carry random suffixes.
func NewScheduler(fs fsops.FS) *Scheduler {
	return &Scheduler{
		fs: fs,
		suffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// WithSuffixFunc replaces the temporary suffix generator. Used by tests.
func (s *Scheduler) WithSuffixFunc(suffix func() string) *Scheduler {
	s.suffix = suffix
	return s
}

type component struct {
	depth int
	steps []Step
}

// Schedule orders the plan's moves so that no destination is written before
// its previous occupant has moved out.
//
// Each move has at most one predecessor (the move vacating its source's slot
// is unique) and one successor, so the moves split into chains and cycles.
// A chain runs back to front, starting with the move into a free slot. A
// cycle parks its first entry at a temporary path, runs the rest as a chain,
// then moves the parked entry to its destination.
//
// Components keep plan order, except that deeper directories go first: a
// directory renamed in the same session must still be at its old path while
// the moves inside it run.
func (s *Scheduler) Schedule(plan *Plan) (*Schedule, error) {
	moves := plan.Moves
	bySource := make(map[string]int, len(moves))
	byDest := make(map[string]int, len(moves))
	taken := make(map[string]bool, len(moves)*2+len(plan.Occupied))

	for i, m := range moves {
		if _, dup := bySource[m.Source]; dup {
			return nil, fmt.Errorf("%w: duplicate source %s", ErrConflict, m.Source)
		}
		if _, dup := byDest[m.Destination]; dup {
			return nil, fmt.Errorf("%w: duplicate destination %s", ErrConflict, m.Destination)
		}
		bySource[m.Source] = i
		byDest[m.Destination] = i
		taken[m.Source] = true
		taken[m.Destination] = true
	}
	for path := range plan.Occupied {
		taken[path] = true
	}

	visited := make([]bool, len(moves))
	var components []component
	sched := &Schedule{}

	for i := range moves {
		if visited[i] {
			continue
		}

		// Walk back to the head of the chain, or all the way round a cycle
		head, cyclic := i, false
		for {
			prev, ok := byDest[moves[head].Source]
			if !ok {
				break
			}
			if prev == i {
				cyclic = true
				break
			}
			head = prev
		}

		var order []int
		if cyclic {
			head = i
		}
		for cur := head; ; {
			order = append(order, cur)
			visited[cur] = true
			next, ok := bySource[moves[cur].Destination]
			if !ok || next == head {
				break
			}
			cur = next
		}

		var steps []Step
		if cyclic {
			parked := moves[head]
			tmp, err := s.tempPath(parked.Source, taken)
			if err != nil {
				return nil, err
			}
			taken[tmp] = true
			sched.Temporaries++

			steps = append(steps, Step{Identity: parked.Identity, Source: parked.Source, Destination: tmp, Temporary: true})
			for k := len(order) - 1; k >= 1; k-- {
				steps = append(steps, stepOf(moves[order[k]]))
			}
			steps = append(steps, Step{Identity: parked.Identity, Source: tmp, Destination: parked.Destination, Temporary: true})
		} else {
			for k := len(order) - 1; k >= 0; k-- {
				steps = append(steps, stepOf(moves[order[k]]))
			}
		}

		components = append(components, component{
			depth: countPathSeparators(moves[head].Source),
			steps: steps,
		})
	}

	sort.SliceStable(components, func(a, b int) bool {
		return components[a].depth > components[b].depth
	})
	for _, c := range components {
		sched.Steps = append(sched.Steps, c.steps...)
	}

	log.WithFields(log.Fields{
		"moves":       len(moves),
		"steps":       len(sched.Steps),
		"components":  len(components),
		"temporaries": sched.Temporaries,
	}).Debug("plan scheduled")

	return sched, nil
}

// tempPath returns an unused path next to source.
func (s *Scheduler) tempPath(source string, taken map[string]bool) (string, error) {
	dir, name := inventory.SplitPath(source)
	name = truncateName(name, maxTempStemLen)

	for attempt := 0; attempt < maxTempAttempts; attempt++ {
		candidate := filepath.Join(dir, "."+name+TempMarker+s.suffix())
		if taken[candidate] {
			continue
		}
		exists, err := s.fs.Exists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check temporary path %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to find a free temporary name for %s after %d attempts", source, maxTempAttempts)
}

func stepOf(m Move) Step {
	return Step{Identity: m.Identity, Source: m.Source, Destination: m.Destination}
}

// truncateName cuts name to at most n bytes without splitting a rune.
func truncateName(name string, n int) string {
	if len(name) <= n {
		return name
	}
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}

// countPathSeparators counts the host path separators in a path.
func countPathSeparators(path string) int {
	return strings.Count(path, string(filepath.Separator))
}
