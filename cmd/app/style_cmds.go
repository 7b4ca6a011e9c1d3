package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal/palette"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/theme"
	"github.com/starford/dagaz/internal/typo"
)

func paletteTemplateCmd() *cli.Command {
	return &cli.Command{
		Name:  "palette-template",
		Usage: "Export the current theme as a palette document ready to edit and re-apply",
		Flags: []cli.Flag{
			inFlag(),
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Template format: yaml or json", Value: "yaml"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, _, err := readDeck(cmd)
			if err != nil {
				return err
			}
			out, err := palette.Template(d, cmd.String("format"))
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func applyPaletteCmd() *cli.Command {
	return &cli.Command{
		Name:  "apply-palette",
		Usage: "Apply a palette document to the theme: colors, fonts, and name",
		Flags: []cli.Flag{
			inFlag(), outFlag(), formatFlag(),
			&cli.StringFlag{Name: "palette", Aliases: []string{"p"}, Usage: "Palette file (YAML or JSON)"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			palettePath := cmd.String("palette")
			if palettePath == "" {
				return cli.Exit("--palette is required", 2)
			}
			p, err := palette.Load(palettePath)
			if err != nil {
				return err
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			res, err := palette.Apply(d, p)
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			return render(cmd, res, func() string {
				parts := []string{fmt.Sprintf("%d color(s) changed", res.ColorsChanged)}
				if res.FontsChanged {
					parts = append(parts, "fonts updated")
				}
				if res.Renamed {
					parts = append(parts, "theme renamed")
				}
				return strings.Join(parts, ", ")
			})
		},
	}
}

func setColorsCmd() *cli.Command {
	return &cli.Command{
		Name:      "set-colors",
		Usage:     "Set individual theme color slots without touching the rest",
		ArgsUsage: "slot=RRGGBB [slot=RRGGBB ...]",
		Flags:     []cli.Flag{inFlag(), outFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 {
				return cli.Exit("at least one slot=RRGGBB assignment is required", 2)
			}
			order, values, err := parser.ParseAssignments(args)
			if err != nil {
				return err
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			changed, err := theme.NewEditor(d).SetColors(order, values)
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			fmt.Printf("%d color(s) changed\n", changed)
			return nil
		},
	}
}

func setFontsCmd() *cli.Command {
	return &cli.Command{
		Name:  "set-fonts",
		Usage: "Replace the theme's major (headings) and/or minor (body) typeface",
		Flags: []cli.Flag{
			inFlag(), outFlag(),
			&cli.StringFlag{Name: "major", Usage: "Heading typeface name"},
			&cli.StringFlag{Name: "minor", Usage: "Body typeface name"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			major, minor := cmd.String("major"), cmd.String("minor")
			if major == "" && minor == "" {
				return cli.Exit("--major or --minor is required", 2)
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			if err := theme.NewEditor(d).SetFonts(major, minor); err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			fmt.Println("fonts updated")
			return nil
		},
	}
}

func setThemeNamesCmd() *cli.Command {
	return &cli.Command{
		Name:  "set-theme-names",
		Usage: "Rename the theme, its color scheme, and/or its font scheme",
		Flags: []cli.Flag{
			inFlag(), outFlag(),
			&cli.StringFlag{Name: "theme", Usage: "Theme name"},
			&cli.StringFlag{Name: "colors", Usage: "Color scheme name"},
			&cli.StringFlag{Name: "fonts", Usage: "Font scheme name"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			themeName, colors, fonts := cmd.String("theme"), cmd.String("colors"), cmd.String("fonts")
			if themeName == "" && colors == "" && fonts == "" {
				return cli.Exit("at least one of --theme, --colors, --fonts is required", 2)
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			if err := theme.NewEditor(d).SetNames(themeName, colors, fonts); err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			fmt.Println("names updated")
			return nil
		},
	}
}

func setTextStylesCmd() *cli.Command {
	return &cli.Command{
		Name:  "set-text-styles",
		Usage: "Set title and body text defaults across masters and placeholders",
		Flags: []cli.Flag{
			inFlag(), outFlag(), formatFlag(),
			&cli.FloatFlag{Name: "title-size", Usage: "Title size in points"},
			&cli.FloatFlag{Name: "body-size", Usage: "Body size in points"},
			&cli.BoolFlag{Name: "title-bold", Usage: "Bold titles (--title-bold=false to unbold)"},
			&cli.BoolFlag{Name: "body-bold", Usage: "Bold body text (--body-bold=false to unbold)"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			opts := typo.Options{
				TitleSizePt: cmd.Float("title-size"),
				BodySizePt:  cmd.Float("body-size"),
			}
			if cmd.IsSet("title-bold") {
				v := cmd.Bool("title-bold")
				opts.TitleBold = &v
			}
			if cmd.IsSet("body-bold") {
				v := cmd.Bool("body-bold")
				opts.BodyBold = &v
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			res, err := typo.SetTextStyles(d, opts)
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			return render(cmd, res, func() string {
				return fmt.Sprintf("updated %d master style(s) and %d placeholder(s)", res.MasterStyles, res.Placeholders)
			})
		},
	}
}
