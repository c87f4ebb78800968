package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"NoteKeeper/internal/cli/api"
	"NoteKeeper/internal/cli/bootstrap"
	fsrepo "NoteKeeper/internal/cli/repo/fs"
	"NoteKeeper/internal/cli/service"
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/model"
)

// session builds an API client for the stored token.
func session(cfg *config.Config) (*api.Client, error) {
	token, err := (fsrepo.AuthFSStore{}).Load()
	if err != nil || token == "" {
		return nil, errNotLoggedIn
	}
	return api.NewClient(cfg.ServerURL, token), nil
}

// notesService opens the API client and the user's note cache.
// The returned cleanup closes the cache.
func notesService(cfg *config.Config) (*service.Notes, func(), error) {
	c, err := session(cfg)
	if err != nil {
		return nil, nil, err
	}
	cache, done, err := bootstrap.OpenNoteCache()
	if err != nil {
		// без кэша работаем только онлайн
		return service.NewNotes(c, nil), func() {}, nil
	}
	return service.NewNotes(c, cache), func() { _ = done() }, nil
}

// callPlain posts to an endpoint that answers with plain JSON rather than the envelope.
func callPlain(ctx context.Context, url, token string, out any) error {
	resp, body, err := api.PostJSONContext(ctx, url, struct{}{}, token)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func printNotes(notes []model.NoteView) {
	if len(notes) == 0 {
		fmt.Fprintln(Out, "No notes")
		return
	}
	tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTAGS\tUPDATED")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.Title, tagList(n.Tags), n.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func printPlainNotes(notes []model.Note) {
	views := make([]model.NoteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, model.NoteView{Note: n})
	}
	printNotes(views)
}

func printTags(tags []model.Tag) {
	if len(tags) == 0 {
		fmt.Fprintln(Out, "No tags")
		return
	}
	tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, t := range tags {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.Color)
	}
	_ = tw.Flush()
}

func tagList(tags []model.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, "#"+t.Name)
	}
	return strings.Join(names, " ")
}

// splitIDs parses a comma separated list, skipping blanks.
func splitIDs(s string) []string {
	out := []string{}
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
