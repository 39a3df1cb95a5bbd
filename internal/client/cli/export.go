package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pagewatch/internal/filex"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/netx"
)

// Export asks the server for a JSON export of all monitors. With a path
// the file is downloaded and written there as well.
func (a *App) Export(ctx context.Context, path string) error {
	owner := a.session.UserID()
	if owner == "" {
		return a.report(ctx, "export", errNoSession)
	}

	link, err := a.client.Export(ctx, models.CollectionPath(owner))
	if err != nil {
		return a.report(ctx, "export", err)
	}

	fmt.Fprintf(a.out, "Export ready: %s\n", link.URL)
	fmt.Fprintf(a.out, "The link expires at %s\n", link.ExpiresAt.Local().Format(timeLayout))

	if path == "" {
		return nil
	}

	data, err := netx.DownloadPresignedURL(ctx, a.httpClient, link.URL)
	if err != nil {
		return a.report(ctx, "download export", err)
	}
	if err := filex.WriteFileAtomic(path, data); err != nil {
		return a.report(ctx, "save export", err)
	}
	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", len(data), path)
	return nil
}
