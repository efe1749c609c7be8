package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/exersio/internal/client/services"
)

func (a *App) Clubs(ctx context.Context) error {
	if !a.net.IsOnline() {
		return services.ErrOffline
	}
	clubs, err := a.clubs.ListClubs(ctx)
	if err != nil {
		return err
	}
	if len(clubs) == 0 {
		a.printf("You are not a member of any club\n")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE")
	for _, c := range clubs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Role)
	}
	return w.Flush()
}

func (a *App) AddClub(ctx context.Context) error {
	if !a.net.IsOnline() {
		return services.ErrOffline
	}
	name, err := a.ask("Club name", "")
	if err != nil {
		return err
	}
	c, err := a.clubs.CreateClub(ctx, name)
	if err != nil {
		return err
	}
	a.printf("Created club %s (%s)\n", c.Name, c.ID)
	return nil
}

func (a *App) AddMember(ctx context.Context, clubID, userID, role string) error {
	if !a.net.IsOnline() {
		return services.ErrOffline
	}
	if err := a.clubs.AddClubMember(ctx, clubID, userID, role); err != nil {
		return err
	}
	a.printf("Added %s to club %s as %s\n", userID, clubID, role)
	return nil
}
