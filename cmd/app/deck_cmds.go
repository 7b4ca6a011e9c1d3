package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal/audit"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/palette"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/rewrite"
	"github.com/starford/dagaz/internal/theme"
)

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Summarize a deck: kind, part counts, theme, slide size",
		Flags: []cli.Flag{inFlag(), formatFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, _, err := readDeck(cmd)
			if err != nil {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return render(cmd, info, func() string {
				return strings.Join([]string{
					fmt.Sprintf("kind:    %s", info.Kind),
					fmt.Sprintf("slides:  %d", info.Slides),
					fmt.Sprintf("layouts: %d", info.Layouts),
					fmt.Sprintf("masters: %d", info.Masters),
					fmt.Sprintf("theme:   %s (%s)", info.ThemeName, info.ThemePart),
					fmt.Sprintf("size:    %.2f x %.2f in", info.WidthInches, info.HeightInches),
				}, "\n")
			})
		},
	}
}

func newCmd() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Create a minimal deck with one master, one layout, and one slide",
		Flags: []cli.Flag{
			outFlag(),
			&cli.BoolFlag{Name: "template", Usage: "Create a template (.potx) instead of a presentation"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			out := cmd.String("out")
			if out == "" {
				return cli.Exit("--out is required", 2)
			}
			data, err := deck.New(cmd.Bool("template")).Save()
			if err != nil {
				return err
			}
			store, name, err := fileStore(out, true)
			if err != nil {
				return err
			}
			if err := store.Write(name, data); err != nil {
				return err
			}
			fmt.Printf("created: %s\n", out)
			return nil
		},
	}
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check package structure, relationships, and styling references",
		Flags: []cli.Flag{inFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			findings := d.Validate()
			if len(findings) == 0 {
				fmt.Printf("%s: ok\n", in)
				return nil
			}
			for _, f := range findings {
				fmt.Println(f.Error())
			}
			return cli.Exit(fmt.Sprintf("%s: %d finding(s)", in, len(findings)), 1)
		},
	}
}

func auditCmd() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Report hard-coded styling per slide and cluster slides by signature",
		Flags: []cli.Flag{
			inFlag(), slidesFlag(), formatFlag(),
			&cli.StringFlag{Name: "group-by", Aliases: []string{"g"}, Usage: "Signature axes: palette, background, layout (or p,b,l)"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, _, err := readDeck(cmd)
			if err != nil {
				return err
			}
			sel, err := parser.ParseSelection(cmd.String("slides"))
			if err != nil {
				return err
			}
			axes, err := parser.ParseAxes(cmd.String("group-by"))
			if err != nil {
				return err
			}
			report, err := audit.Audit(d, sel)
			if err != nil {
				return err
			}
			groups, err := report.Group(axes)
			if err != nil {
				return err
			}
			out := struct {
				Report *audit.Report `json:"report"`
				Groups []audit.Group `json:"groups"`
			}{report, groups}
			return render(cmd, out, func() string {
				lines := []string{fmt.Sprintf("audited %d of %d slides", report.SlidesAudited, report.SlidesTotal)}
				for _, s := range report.Slides {
					if s.Error != "" {
						lines = append(lines, fmt.Sprintf("  slide %-3d error: %s", s.Number, s.Error))
						continue
					}
					lines = append(lines, fmt.Sprintf("  slide %-3d hard-coded %-3d scheme %-3d layout %s",
						s.Number, s.HardCoded, s.SchemeDerived, s.Layout))
				}
				lines = append(lines, fmt.Sprintf("%d group(s) by %s:", len(groups), strings.Join(axes, ",")))
				for _, g := range groups {
					lines = append(lines, fmt.Sprintf("  slides %v  %s", g.Slides, g.Key))
				}
				return strings.Join(lines, "\n")
			})
		},
	}
}

func normalizeCmd() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Replace literal colors with theme references using a hex-to-slot mapping",
		Flags: []cli.Flag{
			inFlag(), outFlag(), slidesFlag(), formatFlag(),
			&cli.StringFlag{Name: "mapping", Aliases: []string{"m"}, Usage: "Mapping file (YAML or JSON) of RRGGBB: slot pairs"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			mappingPath := cmd.String("mapping")
			if mappingPath == "" {
				return cli.Exit("--mapping is required", 2)
			}
			mapping, err := palette.LoadMapping(mappingPath)
			if err != nil {
				return err
			}
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			sel, err := parser.ParseSelection(cmd.String("slides"))
			if err != nil {
				return err
			}
			res, err := rewrite.Normalize(d, mapping, sel)
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			return render(cmd, res, func() string {
				return fmt.Sprintf("normalized %d color(s) across %d slide(s)", res.Total, len(res.Slides))
			})
		},
	}
}

func stripCmd() *cli.Command {
	return &cli.Command{
		Name:  "strip",
		Usage: "Remove slide-level styling overrides so the theme shows through",
		Flags: []cli.Flag{
			inFlag(), outFlag(), slidesFlag(), formatFlag(),
			&cli.BoolFlag{Name: "colors", Usage: "Strip literal colors and color-map overrides", Value: true},
			&cli.BoolFlag{Name: "fonts", Usage: "Strip explicit typefaces"},
			&cli.BoolFlag{Name: "inline", Usage: "Strip inline run and paragraph formatting"},
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
			res, err := rewrite.Strip(d, sel, rewrite.StripOptions{
				Colors: cmd.Bool("colors"),
				Fonts:  cmd.Bool("fonts"),
				Inline: cmd.Bool("inline"),
			})
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			return render(cmd, res, func() string {
				return fmt.Sprintf("stripped %d color(s), %d font(s), %d inline node(s), %d map override(s)",
					res.Colors, res.Fonts, res.Inline, res.MapOverrides)
			})
		},
	}
}

func sanitizeCmd() *cli.Command {
	return &cli.Command{
		Name:  "sanitize",
		Usage: "Repair structural omissions strict OOXML readers reject",
		Flags: []cli.Flag{inFlag(), outFlag(), formatFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, in, err := readDeck(cmd)
			if err != nil {
				return err
			}
			res, err := rewrite.Sanitize(d)
			if err != nil {
				return err
			}
			if err := writeDeck(cmd, in, d); err != nil {
				return err
			}
			return render(cmd, res, func() string {
				return fmt.Sprintf("applied %d fix(es): clrMap %d, bodyPr %d, lstStyle %d, background %d",
					res.Total(), res.ClrMapAdded, res.BodyPrAdded, res.LstStyleFixed, res.BackgroundAdded)
			})
		},
	}
}

func dumpThemeCmd() *cli.Command {
	return &cli.Command{
		Name:  "dump-theme",
		Usage: "Print the theme's twelve color slots and font pairing",
		Flags: []cli.Flag{inFlag(), formatFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, _, err := readDeck(cmd)
			if err != nil {
				return err
			}
			dump, err := theme.NewEditor(d).Dump()
			if err != nil {
				return err
			}
			return render(cmd, dump, func() string {
				lines := []string{fmt.Sprintf("theme %q (%s)", dump.Name, dump.Part)}
				for _, slot := range dump.Colors {
					value := slot.Value
					if slot.SysVal != "" {
						value = fmt.Sprintf("%s (last %s)", slot.Value, slot.SysVal)
					}
					lines = append(lines, fmt.Sprintf("  %-8s %s", slot.Slot, value))
				}
				lines = append(lines,
					fmt.Sprintf("  major    %s", dump.Fonts.Major.Latin),
					fmt.Sprintf("  minor    %s", dump.Fonts.Minor.Latin))
				return strings.Join(lines, "\n")
			})
		},
	}
}

func dumpTreeCmd() *cli.Command {
	return &cli.Command{
		Name:  "dump-tree",
		Usage: "Print the styling inheritance tree, or one slide's resolution chain",
		Flags: []cli.Flag{
			inFlag(),
			&cli.IntFlag{Name: "slide", Usage: "Slide number for a single-slide chain"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			d, _, err := readDeck(cmd)
			if err != nil {
				return err
			}
			var tree string
			if n := int(cmd.Int("slide")); n > 0 {
				tree, err = d.DumpSlideTree(n)
			} else {
				tree, err = d.DumpTree()
			}
			if err != nil {
				return err
			}
			fmt.Print(tree)
			return nil
		},
	}
}
