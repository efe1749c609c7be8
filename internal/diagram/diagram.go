package diagram

import (
	"errors"
	"fmt"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 2

var (
	ErrUnsupportedVersion = errors.New("unsupported diagram version")
	ErrInvalidDiagram     = errors.New("invalid diagram")
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Player struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Team  string  `json:"team,omitempty"`
	Label string  `json:"label,omitempty"`
	Role  string  `json:"role,omitempty"`
}

func (p Player) Position() Point { return Point{X: p.X, Y: p.Y} }

type Ball struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type Zone struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color,omitempty"`
	Label  string  `json:"label,omitempty"`
}

type ArrowKind string

const (
	ArrowStraight ArrowKind = "straight"
	ArrowCurved   ArrowKind = "curved"
)

type ArrowStyle string

const (
	StylePass    ArrowStyle = "pass"
	StyleRun     ArrowStyle = "run"
	StyleDribble ArrowStyle = "dribble"
	StyleShot    ArrowStyle = "shot"
)

func (s ArrowStyle) valid() bool {
	switch s {
	case StylePass, StyleRun, StyleDribble, StyleShot:
		return true
	}
	return false
}

// Arrow is a movement or pass. Step orders arrows into a sequence; 0 means
// unnumbered.
type Arrow struct {
	ID      string     `json:"id"`
	Kind    ArrowKind  `json:"kind"`
	From    Point      `json:"from"`
	To      Point      `json:"to"`
	Control *Point     `json:"control,omitempty"`
	Style   ArrowStyle `json:"style"`
	Step    int        `json:"step,omitempty"`
}

// Diagram is the current (v2) representation.
type Diagram struct {
	Version int      `json:"version"`
	Court   string   `json:"court,omitempty"`
	Players []Player `json:"players"`
	Balls   []Ball   `json:"balls"`
	Arrows  []Arrow  `json:"arrows"`
	Zones   []Zone   `json:"zones"`
}

// New returns an empty diagram at the current version.
func New(court string) *Diagram {
	return &Diagram{
		Version: CurrentVersion,
		Court:   court,
		Players: []Player{},
		Balls:   []Ball{},
		Arrows:  []Arrow{},
		Zones:   []Zone{},
	}
}

func inRange(v float64) bool { return v >= 0 && v <= 100 }

func checkPoint(what, id string, p Point) error {
	if !inRange(p.X) || !inRange(p.Y) {
		return fmt.Errorf("%w: %s %q at (%g, %g) is outside the court", ErrInvalidDiagram, what, id, p.X, p.Y)
	}
	return nil
}

// Validate checks coordinates, arrow shapes and id uniqueness.
func (d *Diagram) Validate() error {
	if d.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}

	seen := make(map[string]struct{})
	unique := func(what, id string) error {
		if id == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidDiagram, what)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidDiagram, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, p := range d.Players {
		if err := unique("player", p.ID); err != nil {
			return err
		}
		if err := checkPoint("player", p.ID, p.Position()); err != nil {
			return err
		}
	}

	for _, b := range d.Balls {
		if err := unique("ball", b.ID); err != nil {
			return err
		}
		if err := checkPoint("ball", b.ID, Point{X: b.X, Y: b.Y}); err != nil {
			return err
		}
	}

	for _, z := range d.Zones {
		if err := unique("zone", z.ID); err != nil {
			return err
		}
		if z.Width < 0 || z.Height < 0 {
			return fmt.Errorf("%w: zone %q has negative size", ErrInvalidDiagram, z.ID)
		}
		if err := checkPoint("zone", z.ID, Point{X: z.X, Y: z.Y}); err != nil {
			return err
		}
		if err := checkPoint("zone", z.ID, Point{X: z.X + z.Width, Y: z.Y + z.Height}); err != nil {
			return err
		}
	}

	for _, a := range d.Arrows {
		if err := unique("arrow", a.ID); err != nil {
			return err
		}
		if !a.Style.valid() {
			return fmt.Errorf("%w: arrow %q has unknown style %q", ErrInvalidDiagram, a.ID, a.Style)
		}
		switch a.Kind {
		case ArrowStraight:
		case ArrowCurved:
			if a.Control == nil {
				return fmt.Errorf("%w: curved arrow %q has no control point", ErrInvalidDiagram, a.ID)
			}
			if err := checkPoint("arrow control", a.ID, *a.Control); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: arrow %q has unknown kind %q", ErrInvalidDiagram, a.ID, a.Kind)
		}
		if err := checkPoint("arrow start", a.ID, a.From); err != nil {
			return err
		}
		if err := checkPoint("arrow end", a.ID, a.To); err != nil {
			return err
		}
	}

	return nil
}
