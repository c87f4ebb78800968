package commands

import (
	"context"
	"fmt"

	"NoteKeeper/internal/config"
)

type tagsCmd struct{}

func (tagsCmd) Name() string        { return "tags" }
func (tagsCmd) Description() string { return "List tags" }
func (tagsCmd) Usage() string       { return "tags" }

func (tagsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	tags, err := svc.Tags(ctx)
	if err != nil {
		return err
	}
	printTags(tags)
	return nil
}

type tagAddCmd struct{}

func (tagAddCmd) Name() string        { return "tag-add" }
func (tagAddCmd) Description() string { return "Create a tag (color from the palette, default gray)" }
func (tagAddCmd) Usage() string       { return "tag-add <name> [#RRGGBB]" }

func (tagAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	color := ""
	if len(args) == 2 {
		color = args[1]
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	t, err := svc.CreateTag(ctx, args[0], color)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Created tag %s (%s)\n", t.ID, t.Color)
	return nil
}

type tagEditCmd struct{}

func (tagEditCmd) Name() string        { return "tag-edit" }
func (tagEditCmd) Description() string { return "Rename a tag and optionally change its color" }
func (tagEditCmd) Usage() string       { return "tag-edit <tag-id> <name> [#RRGGBB]" }

func (tagEditCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrUsage
	}
	color := ""
	if len(args) == 3 {
		color = args[2]
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	t, err := svc.UpdateTag(ctx, args[0], args[1], color)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Updated tag %s: %s (%s)\n", t.ID, t.Name, t.Color)
	return nil
}

type tagRmCmd struct{}

func (tagRmCmd) Name() string        { return "tag-rm" }
func (tagRmCmd) Description() string { return "Delete a tag" }
func (tagRmCmd) Usage() string       { return "tag-rm <tag-id>" }

func (tagRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	if err := svc.DeleteTag(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted tag %s\n", args[0])
	return nil
}

type tagNotesCmd struct{}

func (tagNotesCmd) Name() string        { return "tag-notes" }
func (tagNotesCmd) Description() string { return "List notes with a tag" }
func (tagNotesCmd) Usage() string       { return "tag-notes <tag-id>" }

func (tagNotesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, done, err := notesService(cfg)
	if err != nil {
		return err
	}
	defer done()
	notes, err := svc.NotesByTag(ctx, args[0])
	if err != nil {
		return err
	}
	printPlainNotes(notes)
	return nil
}

func init() {
	RegisterCmd(tagsCmd{})
	RegisterCmd(tagAddCmd{})
	RegisterCmd(tagEditCmd{})
	RegisterCmd(tagRmCmd{})
	RegisterCmd(tagNotesCmd{})
}
