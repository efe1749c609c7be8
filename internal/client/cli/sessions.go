package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/services"
)

func (a *App) ListSessions(ctx context.Context) error {
	items, err := a.sessions.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		a.printf("No sessions\n")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDATE\tEXERCISES\tSTATUS")
	for _, it := range items {
		s := it.Value
		date := "-"
		if s.Date != nil {
			date = s.Date.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, date, len(s.ExerciseIDs), it.Status)
	}
	return w.Flush()
}

func (a *App) AddSession(ctx context.Context) error {
	s := &models.Session{ExerciseIDs: []string{}}

	var err error
	if s.Name, err = a.ask("Name", ""); err != nil {
		return err
	}
	if s.Description, err = a.ask("Description", ""); err != nil {
		return err
	}

	for {
		v, err := a.ask("Date (YYYY-MM-DD, empty for none)", "")
		if err != nil {
			return err
		}
		if v == "" {
			break
		}
		d, err := time.Parse(time.DateOnly, v)
		if err == nil {
			s.Date = &d
			break
		}
		a.printf("%q is not a date\n", v)
	}

	if s.DurationMinutes, err = a.askInt("Duration (minutes)", 0); err != nil {
		return err
	}

	ids, err := a.askList("Exercise ids in order", nil)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := a.exercises.Get(ctx, id); errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("unknown exercise %s", id)
		} else if err != nil {
			return err
		}
	}
	s.ExerciseIDs = ids

	it, err := a.sessions.Create(ctx, s)
	if err != nil {
		return err
	}
	a.printf("Saved session %s (%s)\n", it.Value.ID, it.Status)
	return nil
}

func (a *App) DeleteSession(ctx context.Context, id string) error {
	if err := a.sessions.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted session %s\n", id)
	return nil
}

var _ sessionService = (*services.SessionService)(nil)
