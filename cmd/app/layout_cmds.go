package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal/layout"
	"github.com/starford/dagaz/internal/media"
	"github.com/starford/dagaz/internal/parser"
)

func makeLayoutCmd() *cli.Command {
	return &cli.Command{
		Name:  "make-layout",
		Usage: "Turn a styled slide into a reusable layout",
		Flags: []cli.Flag{
			inFlag(), outFlag(),
			&cli.IntFlag{Name: "slide", Usage: "Slide number to promote"},
			&cli.StringFlag{Name: "name", Usage: "Display name for the new layout"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			slide := int(cmd.Int("slide"))
			if slide <= 0 {
				return cli.Exit("--slide is required", 2)
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			part, err := layout.MakeFromSlide(d, slide, cmd.String("name"))
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			fmt.Printf("created layout %s (%s)\n", part, layout.Name(d, part))
			return nil
		},
	}
}

func assignLayoutCmd() *cli.Command {
	return &cli.Command{
		Name:  "assign-layout",
		Usage: "Repoint slides at a layout",
		Flags: []cli.Flag{
			inFlag(), outFlag(), slidesFlag(),
			&cli.StringFlag{Name: "layout", Aliases: []string{"l"}, Usage: "Layout part name, number, or display name"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			ref := cmd.String("layout")
			if ref == "" {
				return cli.Exit("--layout is required", 2)
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			sel, err := parser.ParseSelection(cmd.String("slides"))
			if err != nil {
				return err
			}
			assigned, err := layout.Assign(d, sel, ref)
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			fmt.Printf("%d slide(s) reassigned\n", assigned)
			return nil
		},
	}
}

func pruneLayoutsCmd() *cli.Command {
	return &cli.Command{
		Name:  "prune-layouts",
		Usage: "Delete layouts no slide uses",
		Flags: []cli.Flag{inFlag(), outFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			removed, err := layout.Prune(d)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Println("no unused layouts")
				return nil
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", strings.Join(removed, ", "))
			return nil
		},
	}
}

func reindexLayoutsCmd() *cli.Command {
	return &cli.Command{
		Name:  "reindex-layouts",
		Usage: "Renumber layout parts into a contiguous sequence",
		Flags: []cli.Flag{inFlag(), outFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			renamed, err := layout.Reindex(d)
			if err != nil {
				return err
			}
			if len(renamed) == 0 {
				fmt.Println("layouts already contiguous")
				return nil
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			for from, to := range renamed {
				fmt.Printf("%s -> %s\n", from, to)
			}
			return nil
		},
	}
}

func setLayoutBgCmd() *cli.Command {
	return &cli.Command{
		Name:  "set-layout-bg",
		Usage: "Set a layout's background to a flat color or a stretched image",
		Flags: []cli.Flag{
			inFlag(), outFlag(),
			&cli.StringFlag{Name: "layout", Aliases: []string{"l"}, Usage: "Layout part name, number, or display name"},
			&cli.StringFlag{Name: "color", Usage: "Background color as RRGGBB"},
			&cli.StringFlag{Name: "image", Usage: "Image file (png, jpg, gif, bmp)"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			ref := cmd.String("layout")
			if ref == "" {
				return cli.Exit("--layout is required", 2)
			}
			color, image := cmd.String("color"), cmd.String("image")
			switch {
			case color == "" && image == "":
				return cli.Exit("one of --color or --image is required", 2)
			case color != "" && image != "":
				return cli.Exit("specify --color or --image, not both", 2)
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			if color != "" {
				if err := layout.SetBackgroundColor(d, ref, color); err != nil {
					return err
				}
			} else {
				data, err := os.ReadFile(image)
				if err != nil {
					return err
				}
				ext, err := media.DetectImageExt(data)
				if err != nil {
					return err
				}
				part, err := media.AddImage(d, data, ext)
				if err != nil {
					return err
				}
				if err := layout.SetBackgroundImage(d, ref, part); err != nil {
					return err
				}
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			fmt.Println("background updated")
			return nil
		},
	}
}

func addImageCmd() *cli.Command {
	return &cli.Command{
		Name:  "add-image",
		Usage: "Embed an image file under ppt/media/ for later use",
		Flags: []cli.Flag{
			inFlag(), outFlag(),
			&cli.StringFlag{Name: "image", Usage: "Image file (png, jpg, gif, bmp)"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			image := cmd.String("image")
			if image == "" {
				return cli.Exit("--image is required", 2)
			}
			data, err := os.ReadFile(image)
			if err != nil {
				return err
			}
			ext, err := media.DetectImageExt(data)
			if err != nil {
				return err
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			part, err := media.AddImage(d, data, ext)
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			fmt.Printf("added %s (%d bytes)\n", part, len(data))
			return nil
		},
	}
}

func autoLayoutCmd() *cli.Command {
	return &cli.Command{
		Name:  "auto-layout",
		Usage: "Score layouts against slides by placeholder overlap and suggest the best fit",
		Flags: []cli.Flag{
			inFlag(), outFlag(), slidesFlag(), formatFlag(),
			&cli.BoolFlag{Name: "apply", Usage: "Assign the winning layouts instead of just reporting"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			sel, err := parser.ParseSelection(cmd.String("slides"))
			if err != nil {
				return err
			}
			apply := cmd.Bool("apply")
			suggestions, err := layout.Suggest(d, sel, apply)
			if err != nil {
				return err
			}
			if apply {
				if err := writeDeck(cmd, in, d); err != nil {
					return err
				}
			}
			return render(cmd, suggestions, func() string {
				if len(suggestions) == 0 {
					return "no suggestions"
				}
				lines := make([]string, 0, len(suggestions))
				for _, s := range suggestions {
					note := ""
					if s.Current {
						note = "  (current)"
					} else if s.Assigned {
						note = "  (assigned)"
					}
					lines = append(lines, fmt.Sprintf("slide %-3d -> %s (%s) score %d%s",
						s.Slide, s.Layout, s.LayoutName, s.Score, note))
				}
				return strings.Join(lines, "\n")
			})
		},
	}
}
