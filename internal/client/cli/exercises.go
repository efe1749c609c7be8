package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/services"
	"github.com/dmitrijs2005/exersio/internal/diagram"
	"github.com/dmitrijs2005/exersio/internal/filex"
)

// maxDiagramSize caps diagram files read from disk.
const maxDiagramSize = 1 << 20

func (a *App) ListExercises(ctx context.Context) error {
	items, err := a.exercises.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		a.printf("No exercises\n")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tINTENSITY\tSTATUS")
	for _, it := range items {
		e := it.Value
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.ID, e.Name, e.Category, e.Intensity, it.Status)
	}
	return w.Flush()
}

func (a *App) ShowExercise(ctx context.Context, id string) error {
	it, err := a.exercises.Get(ctx, id)
	if err != nil {
		return err
	}
	e := it.Value

	a.printf("%s (%s)\n", e.Name, e.ID)
	if e.Description != "" {
		a.printf("%s\n", e.Description)
	}
	a.printf("Sport: %s  Category: %s  Age: %s\n", e.Sport, e.Category, e.AgeCategory)
	a.printf("Intensity: %d  Duration: %d min  Players: %d-%d\n", e.Intensity, e.DurationMinutes, e.PlayersMin, e.PlayersMax)
	if len(e.Material) > 0 {
		a.printf("Material: %s\n", strings.Join(e.Material, ", "))
	}
	if len(e.Tags) > 0 {
		a.printf("Tags: %s\n", strings.Join(e.Tags, ", "))
	}
	if e.ClubID != nil {
		a.printf("Shared with club: %s\n", *e.ClubID)
	}
	if e.ImageKey != "" {
		a.printf("Image: %s\n", e.ImageKey)
	}
	if !diagram.IsEmpty(e.FieldData) {
		if d, err := diagram.Parse(e.FieldData); err != nil {
			a.printf("Diagram: unreadable (%v)\n", err)
		} else {
			a.printf("Diagram: %s court, %d players, %d balls, %d arrows, %d zones\n",
				d.Court, len(d.Players), len(d.Balls), len(d.Arrows), len(d.Zones))
		}
	}
	a.printf("Status: %s  Last synced: %s\n", it.Status, formatTime(it.LastSynced))

	if it.Status == models.StatusSynced && a.net.IsOnline() {
		if p, err := a.exercises.Permissions(ctx, id); err == nil {
			a.printf("You can: view=%t edit=%t delete=%t share=%t\n", p.CanView, p.CanEdit, p.CanDelete, p.CanShare)
		}
	}
	return nil
}

// fillExercise walks the user through every editable field, using the
// current values as defaults.
func (a *App) fillExercise(e *models.Exercise) error {
	var err error
	if e.Name, err = a.ask("Name", e.Name); err != nil {
		return err
	}
	if e.Description, err = a.ask("Description", e.Description); err != nil {
		return err
	}
	if e.Sport, err = a.ask("Sport", e.Sport); err != nil {
		return err
	}
	if e.Category, err = a.ask("Category", e.Category); err != nil {
		return err
	}
	if e.AgeCategory, err = a.ask("Age category", e.AgeCategory); err != nil {
		return err
	}
	if e.Intensity, err = a.askInt("Intensity (1-5)", e.Intensity); err != nil {
		return err
	}
	if e.DurationMinutes, err = a.askInt("Duration (minutes)", e.DurationMinutes); err != nil {
		return err
	}
	if e.PlayersMin, err = a.askInt("Min players", e.PlayersMin); err != nil {
		return err
	}
	if e.PlayersMax, err = a.askInt("Max players", e.PlayersMax); err != nil {
		return err
	}
	if e.Material, err = a.askList("Material", e.Material); err != nil {
		return err
	}
	if e.Tags, err = a.askList("Tags", e.Tags); err != nil {
		return err
	}

	path, err := a.ask("Diagram JSON file (empty to keep)", "")
	if err != nil {
		return err
	}
	if path != "" {
		raw, _, err := filex.ReadLimited(path, maxDiagramSize)
		if err != nil {
			return err
		}
		norm, err := diagram.Normalize(json.RawMessage(raw))
		if err != nil {
			return err
		}
		e.FieldData = norm
	}
	return nil
}

func (a *App) AddExercise(ctx context.Context) error {
	e := &models.Exercise{}
	if err := a.fillExercise(e); err != nil {
		return err
	}
	it, err := a.exercises.Create(ctx, e)
	if err != nil {
		return err
	}
	a.printf("Saved exercise %s (%s)\n", it.Value.ID, it.Status)
	return nil
}

func (a *App) EditExercise(ctx context.Context, id string) error {
	it, err := a.exercises.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := a.fillExercise(it.Value); err != nil {
		return err
	}
	it, err = a.exercises.Update(ctx, it.Value)
	if err != nil {
		return err
	}
	a.printf("Saved exercise %s (%s)\n", it.Value.ID, it.Status)
	return nil
}

func (a *App) DeleteExercise(ctx context.Context, id string) error {
	if err := a.exercises.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted exercise %s\n", id)
	return nil
}

func (a *App) Share(ctx context.Context, id, clubID string) error {
	if err := a.exercises.Share(ctx, id, clubID); err != nil {
		return err
	}
	a.printf("Shared exercise %s with club %s\n", id, clubID)
	return nil
}

func (a *App) Upload(ctx context.Context, id, path string) error {
	key, err := a.exercises.UploadImage(ctx, id, path)
	if err != nil {
		return err
	}
	a.printf("Uploaded image as %s\n", key)
	return nil
}

var _ exerciseService = (*services.ExerciseService)(nil)
