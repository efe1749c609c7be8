package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// v0: the unversioned layout. Arrows were stored as raw endpoint coordinates
// with an optional control point, player numbers as integers.
type v0Player struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Team   string  `json:"team"`
	Number int     `json:"number"`
}

type v0Arrow struct {
	ID       string   `json:"id"`
	StartX   float64  `json:"startX"`
	StartY   float64  `json:"startY"`
	EndX     float64  `json:"endX"`
	EndY     float64  `json:"endY"`
	ControlX *float64 `json:"controlX"`
	ControlY *float64 `json:"controlY"`
	Type     string   `json:"type"`
}

type v0Diagram struct {
	Court   string     `json:"court"`
	Players []v0Player `json:"players"`
	Balls   []Ball     `json:"balls"`
	Arrows  []v0Arrow  `json:"arrows"`
	Zones   []Zone     `json:"zones"`
}

// v1: a single heterogeneous element list discriminated by "type".
type v1Element struct {
	Type   string  `json:"type"`
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Team   string  `json:"team,omitempty"`
	Label  string  `json:"label,omitempty"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"points,omitempty"`
	Style  string  `json:"style,omitempty"`
	Step   int     `json:"step,omitempty"`
}

type v1Diagram struct {
	Version  int         `json:"version"`
	Court    string      `json:"court"`
	Elements []v1Element `json:"elements"`
}

func legacyStyle(s string) ArrowStyle {
	switch s {
	case "", "pass":
		return StylePass
	case "movement", "move", "run":
		return StyleRun
	default:
		return ArrowStyle(s)
	}
}

func (v v0Diagram) upgrade() v1Diagram {
	out := v1Diagram{Version: 1, Court: v.Court}

	for _, p := range v.Players {
		e := v1Element{Type: "player", ID: p.ID, X: p.X, Y: p.Y, Team: p.Team}
		if p.Number > 0 {
			e.Label = strconv.Itoa(p.Number)
		}
		out.Elements = append(out.Elements, e)
	}
	for _, b := range v.Balls {
		out.Elements = append(out.Elements, v1Element{Type: "ball", ID: b.ID, X: b.X, Y: b.Y})
	}
	for _, a := range v.Arrows {
		pts := []Point{{X: a.StartX, Y: a.StartY}}
		if a.ControlX != nil && a.ControlY != nil {
			pts = append(pts, Point{X: *a.ControlX, Y: *a.ControlY})
		}
		pts = append(pts, Point{X: a.EndX, Y: a.EndY})
		out.Elements = append(out.Elements, v1Element{Type: "arrow", ID: a.ID, Points: pts, Style: a.Type})
	}
	for _, z := range v.Zones {
		out.Elements = append(out.Elements, v1Element{
			Type: "zone", ID: z.ID, X: z.X, Y: z.Y, Width: z.Width, Height: z.Height, Color: z.Color, Label: z.Label,
		})
	}
	return out
}

func (v v1Diagram) upgrade() (*Diagram, error) {
	d := New(v.Court)

	for _, e := range v.Elements {
		switch e.Type {
		case "player":
			d.Players = append(d.Players, Player{ID: e.ID, X: e.X, Y: e.Y, Team: e.Team, Label: e.Label})
		case "ball":
			d.Balls = append(d.Balls, Ball{ID: e.ID, X: e.X, Y: e.Y})
		case "zone":
			d.Zones = append(d.Zones, Zone{
				ID: e.ID, X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, Color: e.Color, Label: e.Label,
			})
		case "arrow":
			a := Arrow{ID: e.ID, Style: legacyStyle(e.Style), Step: e.Step}
			switch len(e.Points) {
			case 2:
				a.Kind = ArrowStraight
				a.From, a.To = e.Points[0], e.Points[1]
			case 3:
				c := e.Points[1]
				a.Kind = ArrowCurved
				a.From, a.Control, a.To = e.Points[0], &c, e.Points[2]
			default:
				return nil, fmt.Errorf("%w: arrow %q has %d points", ErrInvalidDiagram, e.ID, len(e.Points))
			}
			d.Arrows = append(d.Arrows, a)
		default:
			return nil, fmt.Errorf("%w: unknown element type %q", ErrInvalidDiagram, e.Type)
		}
	}
	return d, nil
}

// DetectVersion inspects a stored payload. Payloads without a version are v1
// when they carry an element list and v0 otherwise.
func DetectVersion(raw []byte) (int, error) {
	var probe struct {
		Version  *int            `json:"version"`
		Elements json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDiagram, err)
	}
	if probe.Version != nil {
		return *probe.Version, nil
	}
	if probe.Elements != nil {
		return 1, nil
	}
	return 0, nil
}

// Migrate decodes raw as schema version from and upgrades it one step at a
// time to CurrentVersion.
func Migrate(raw []byte, from int) (*Diagram, error) {
	switch from {
	case 0:
		var v v0Diagram
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: v0: %v", ErrInvalidDiagram, err)
		}
		return v.upgrade().upgrade()
	case 1:
		var v v1Diagram
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: v1: %v", ErrInvalidDiagram, err)
		}
		return v.upgrade()
	case CurrentVersion:
		d := New("")
		if err := json.Unmarshal(raw, d); err != nil {
			return nil, fmt.Errorf("%w: v2: %v", ErrInvalidDiagram, err)
		}
		d.fillNil()
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, from)
	}
}

// fillNil keeps encoded lists as [] rather than null.
func (d *Diagram) fillNil() {
	if d.Players == nil {
		d.Players = []Player{}
	}
	if d.Balls == nil {
		d.Balls = []Ball{}
	}
	if d.Arrows == nil {
		d.Arrows = []Arrow{}
	}
	if d.Zones == nil {
		d.Zones = []Zone{}
	}
}

// Parse accepts any known version and returns the current representation.
func Parse(raw []byte) (*Diagram, error) {
	v, err := DetectVersion(raw)
	if err != nil {
		return nil, err
	}
	return Migrate(raw, v)
}

// Encode validates d and serializes it at CurrentVersion.
func Encode(d *Diagram) (json.RawMessage, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// IsEmpty reports whether raw carries no diagram at all.
func IsEmpty(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// Normalize parses, validates and re-encodes a stored payload so it is always
// written back at CurrentVersion. Empty payloads stay empty.
func Normalize(raw json.RawMessage) (json.RawMessage, error) {
	if IsEmpty(raw) {
		return nil, nil
	}
	d, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return Encode(d)
}
