// Package diagram models the tactical diagram attached to an exercise: players,
// balls, arrows and zones placed on a schematic court.
//
// All coordinates are percentages (0–100) of the court bounding box on both
// axes, so a diagram renders the same at any resolution. Arrows are either
// straight (two endpoints) or curved (a quadratic Bézier with one control
// point).
//
// Stored payloads carry an explicit "version". Older payloads are accepted by
// Parse and upgraded step by step through Migrate:
//
//	v0  bare {"players": [...], "arrows": [{"startX": ...}]} without a version
//	v1  {"version": 1, "elements": [{"type": "player", ...}, ...]}
//	v2  {"version": 2, "players": [...], "balls": [...], "arrows": [...], "zones": [...]}
package diagram
