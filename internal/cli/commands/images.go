package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"NoteKeeper/internal/cli/service"
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/media"
)

func imagesService(cfg *config.Config) (*service.Images, error) {
	c, err := session(cfg)
	if err != nil {
		return nil, err
	}
	return service.NewImages(c), nil
}

type imagesCmd struct{}

func (imagesCmd) Name() string        { return "images" }
func (imagesCmd) Description() string { return "List images of a note" }
func (imagesCmd) Usage() string       { return "images <note-id>" }

func (imagesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, err := imagesService(cfg)
	if err != nil {
		return err
	}
	list, err := svc.List(ctx, args[0])
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "No images")
		return nil
	}
	tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tTYPE\tSIZE")
	for _, img := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", img.ID, img.FileName, img.MimeType, media.FormatFileSize(img.FileSize))
	}
	return tw.Flush()
}

type imageAddCmd struct{}

func (imageAddCmd) Name() string        { return "image-add" }
func (imageAddCmd) Description() string { return "Attach image files to a note" }
func (imageAddCmd) Usage() string       { return "image-add <note-id> <file> [file ...]" }

func (imageAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	svc, err := imagesService(cfg)
	if err != nil {
		return err
	}
	results, err := svc.Upload(ctx, args[0], args[1:])
	if err != nil {
		return err
	}
	failed := 0
	for i, res := range results {
		name := fmt.Sprintf("#%d", i+1)
		if i+1 < len(args) {
			name = args[i+1]
		}
		if res.Success {
			fmt.Fprintf(Out, "%s: uploaded %s\n", name, res.URL)
			continue
		}
		failed++
		fmt.Fprintf(Out, "%s: %s\n", name, res.Error)
	}
	if failed == len(results) {
		return fmt.Errorf("no files uploaded")
	}
	return nil
}

type imageURLCmd struct{}

func (imageURLCmd) Name() string        { return "image-url" }
func (imageURLCmd) Description() string { return "Print the public URL and markdown of an image" }
func (imageURLCmd) Usage() string       { return "image-url <image-id>" }

func (imageURLCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, err := imagesService(cfg)
	if err != nil {
		return err
	}
	u, err := svc.URL(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, u.URL)
	fmt.Fprintln(Out, u.Markdown)
	return nil
}

type imageRmCmd struct{}

func (imageRmCmd) Name() string        { return "image-rm" }
func (imageRmCmd) Description() string { return "Delete an image" }
func (imageRmCmd) Usage() string       { return "image-rm <image-id>" }

func (imageRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, err := imagesService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted image %s\n", args[0])
	return nil
}

func init() {
	RegisterCmd(imagesCmd{})
	RegisterCmd(imageAddCmd{})
	RegisterCmd(imageURLCmd{})
	RegisterCmd(imageRmCmd{})
}
