package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"NoteKeeper/internal/config"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/search"

	"golang.org/x/text/language"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

type notesCmd struct{}

func (notesCmd) Name() string        { return "notes" }
func (notesCmd) Description() string { return "List notes (filter by tag/text, sort); works offline from cache" }
func (notesCmd) Usage() string {
	return "notes [-tag <id>] [-q <text>] [-sort <key>] [-locale <bcp47>]"
}

func (notesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("notes")
	tag := fs.String("tag", "", "tag id")
	q := fs.String("q", "", "text filter")
	sortKey := fs.String("sort", string(search.UpdatedDesc), "sort key")
	locale := fs.String("locale", "", "collation locale for title sort")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}
	c := search.Criteria{TagID: *tag, Query: *q, Sort: search.ParseSortKey(*sortKey)}
	if *locale != "" {
		loc, err := language.Parse(*locale)
		if err != nil {
			return fmt.Errorf("invalid locale %q: %w", *locale, err)
		}
		c.Locale = loc
	}

	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	notes, offline, err := svc.List(ctx, c)
	if err != nil {
		return err
	}
	if offline {
		fmt.Fprintln(Out, "(offline: showing cached notes)")
	}
	printNotes(notes)
	return nil
}

type searchCmd struct{}

func (searchCmd) Name() string        { return "search" }
func (searchCmd) Description() string { return "Search notes by title, content and tag name" }
func (searchCmd) Usage() string       { return "search <query>" }

func (searchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	notes, err := svc.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printNotes(notes)
	return nil
}

type trashCmd struct{}

func (trashCmd) Name() string        { return "trash" }
func (trashCmd) Description() string { return "List deleted notes" }
func (trashCmd) Usage() string       { return "trash" }

func (trashCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	notes, err := svc.Trash(ctx)
	if err != nil {
		return err
	}
	printPlainNotes(notes)
	return nil
}

type noteShowCmd struct{}

func (noteShowCmd) Name() string        { return "note-show" }
func (noteShowCmd) Description() string { return "Show a note with its tags" }
func (noteShowCmd) Usage() string       { return "note-show <note-id>" }

func (noteShowCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	n, err := svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "%s\n", n.Title)
	if len(n.Tags) > 0 {
		fmt.Fprintln(Out, tagList(n.Tags))
	}
	if n.IsPublic {
		fmt.Fprintln(Out, "(public)")
	}
	if n.Content != nil {
		fmt.Fprintf(Out, "\n%s\n", *n.Content)
	}
	return nil
}

// noteFlags разбирает общие флаги note-add и note-edit.
func noteFlags(name string, args []string) (model.NoteInput, []string, error) {
	fs := newFlagSet(name)
	public := fs.Bool("public", false, "make note public")
	tags := fs.String("tags", "", "comma separated tag ids")
	if err := fs.Parse(args); err != nil {
		return model.NoteInput{}, nil, ErrUsage
	}
	in := model.NoteInput{IsPublic: *public, TagIDs: splitIDs(*tags)}
	return in, fs.Args(), nil
}

type noteAddCmd struct{}

func (noteAddCmd) Name() string        { return "note-add" }
func (noteAddCmd) Description() string { return "Create a note" }
func (noteAddCmd) Usage() string {
	return "note-add [-public] [-tags <id,id>] <title> [content]"
}

func (noteAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	in, rest, err := noteFlags("note-add", args)
	if err != nil || len(rest) < 1 || len(rest) > 2 {
		return ErrUsage
	}
	in.Title = rest[0]
	if len(rest) == 2 {
		in.Content = &rest[1]
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	n, err := svc.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Created note %s\n", n.ID)
	return nil
}

type noteEditCmd struct{}

func (noteEditCmd) Name() string        { return "note-edit" }
func (noteEditCmd) Description() string { return "Replace title, content, visibility and tags of a note" }
func (noteEditCmd) Usage() string {
	return "note-edit [-public] [-tags <id,id>] <note-id> <title> [content]"
}

func (noteEditCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	in, rest, err := noteFlags("note-edit", args)
	if err != nil || len(rest) < 2 || len(rest) > 3 {
		return ErrUsage
	}
	in.Title = rest[1]
	if len(rest) == 3 {
		in.Content = &rest[2]
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	n, err := svc.Update(ctx, rest[0], in)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Updated note %s\n", n.ID)
	return nil
}

type noteRmCmd struct{}

func (noteRmCmd) Name() string        { return "note-rm" }
func (noteRmCmd) Description() string { return "Move a note to trash" }
func (noteRmCmd) Usage() string       { return "note-rm <note-id>" }

func (noteRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	if err := svc.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted note %s\n", args[0])
	return nil
}

type noteRestoreCmd struct{}

func (noteRestoreCmd) Name() string        { return "note-restore" }
func (noteRestoreCmd) Description() string { return "Restore a note from trash" }
func (noteRestoreCmd) Usage() string       { return "note-restore <note-id>" }

func (noteRestoreCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	if err := svc.Restore(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Restored note %s\n", args[0])
	return nil
}

type noteTagsCmd struct{}

func (noteTagsCmd) Name() string        { return "note-tags" }
func (noteTagsCmd) Description() string { return "Replace the tags of a note (no ids clears them)" }
func (noteTagsCmd) Usage() string       { return "note-tags <note-id> [tag-id ...]" }

func (noteTagsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	if err := svc.SetTags(ctx, args[0], args[1:]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Tags updated for note %s\n", args[0])
	return nil
}

func init() {
	RegisterCmd(notesCmd{})
	RegisterCmd(searchCmd{})
	RegisterCmd(trashCmd{})
	RegisterCmd(noteShowCmd{})
	RegisterCmd(noteAddCmd{})
	RegisterCmd(noteEditCmd{})
	RegisterCmd(noteRmCmd{})
	RegisterCmd(noteRestoreCmd{})
	RegisterCmd(noteTagsCmd{})
}
