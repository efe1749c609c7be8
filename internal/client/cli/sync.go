package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/services"
)

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// Status prints the offline panel.
func (a *App) Status(ctx context.Context) error {
	st, err := a.sync.Status(ctx)
	if err != nil {
		return err
	}

	a.printf("Mode:      %s\n", a.net.Mode())
	for _, kind := range models.Kinds {
		a.printf("%-10s %d pending, %d in conflict\n", kind+":", st.Pending[kind], st.Conflicts[kind])
	}
	a.printf("Last sync: %s\n", formatTime(st.LastSyncTime))
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	res, err := a.sync.SyncAll(ctx)
	if err != nil {
		return err
	}

	a.printf("Synced: %d, failed: %d, conflicts: %d\n", res.Synced, res.Failed, res.Conflicts)
	for _, e := range res.Errors {
		a.printf("  %s\n", e)
	}
	if res.Conflicts > 0 {
		a.printf("Run 'conflicts' to review and 'resolve' to settle them.\n")
	}
	return nil
}

func (a *App) Download(ctx context.Context) error {
	res, err := a.sync.DownloadAll(ctx)
	if err != nil {
		return err
	}
	a.printf("Downloaded: %d\n", res.Downloaded)
	if res.Skipped > 0 {
		a.printf("Kept %s with unsynced local changes\n", pluralize(res.Skipped, "record"))
	}
	return nil
}

func (a *App) Conflicts(ctx context.Context) error {
	list, err := a.sync.GetConflicts(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No conflicts\n")
		return nil
	}

	for _, c := range list {
		a.printf("%s %s\n", c.Kind, c.ID)
		a.printf("  local:  modified %s (last synced %s)\n", formatTime(&c.LocalModified), formatTime(c.LastSynced))
		switch {
		case c.ServerMissing:
			a.printf("  server: deleted\n")
		case c.FetchError != "":
			a.printf("  server: unavailable (%s)\n", c.FetchError)
		default:
			a.printf("  server: updated %s\n", formatTime(&c.ServerUpdated))
		}
	}
	return nil
}

func (a *App) Resolve(ctx context.Context, kind, id, choice string) error {
	k, err := models.ParseKind(kind)
	if err != nil {
		return err
	}
	if err := a.sync.ResolveConflict(ctx, k, id, choice); err != nil {
		return err
	}
	a.printf("Resolved %s %s with the %s copy\n", k, id, choice)
	return nil
}

// Clear wipes the offline store after confirmation.
func (a *App) Clear(ctx context.Context) error {
	ok, err := a.confirm("Delete all offline data, including unsynced changes?")
	if err != nil || !ok {
		return err
	}
	if err := a.sync.ClearLocalData(ctx); err != nil {
		return err
	}
	a.userName = ""
	a.printf("Local data cleared\n")
	return nil
}

var _ syncService = (*services.SyncService)(nil)
