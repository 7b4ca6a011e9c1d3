package mcpserver

// PaletteFormatContract describes the palette document format that
// LLM consumers should follow when restyling decks.
const PaletteFormatContract = `# Dagaz Palette File Contract

A palette is a YAML (or JSON) document that names theme colors, fonts,
and optionally a new theme name. ` + "`" + `palette_apply` + "`" + ` pushes it into a deck's
theme; ` + "`" + `palette_template` + "`" + ` exports the current theme in the same format.

## Structure

` + "```" + `yaml
name: Brand 2026            # OPTIONAL - renames the theme
colors:                     # REQUIRED - any subset of the twelve slots
  dk1: "1A1A2E"             # RRGGBB hex, uppercase or lowercase, '#' allowed
  lt1: "FFFFFF"
  accent1: "E94560"
  accent2: "0F3460"
fonts:                      # OPTIONAL
  major: Archivo            # heading typeface
  minor: Inter              # body typeface
` + "```" + `

## Rules

1. **Slot names** are the scheme slots: ` + "`" + `dk1` + "`" + `, ` + "`" + `lt1` + "`" + `, ` + "`" + `dk2` + "`" + `, ` + "`" + `lt2` + "`" + `,
   ` + "`" + `accent1` + "`" + ` through ` + "`" + `accent6` + "`" + `, ` + "`" + `hlink` + "`" + `, ` + "`" + `folHlink` + "`" + `. The long aliases
   ` + "`" + `dark1` + "`" + `, ` + "`" + `light1` + "`" + `, ` + "`" + `dark2` + "`" + `, ` + "`" + `light2` + "`" + ` are accepted too.
2. **Partial palettes are fine.** Slots you leave out keep their current
   color. Two keys must not name the same slot.
3. **Color values** are six hex digits (RRGGBB). A leading ` + "`" + `#` + "`" + ` is
   stripped; shorthand like ` + "`" + `#fff` + "`" + ` is rejected.
4. **Fonts** replace the major (headings) and minor (body) typefaces of
   the font scheme. Omit the block to keep the current pairing.
5. **File extension** decides the format: ` + "`" + `.yaml` + "`" + `/` + "`" + `.yml` + "`" + ` or ` + "`" + `.json` + "`" + `.
   Inline documents passed to tools are parsed as YAML, which accepts
   JSON as a subset.

## Color mappings (for deck_normalize)

A mapping file uses the same formats but maps literal colors to slots:

` + "```" + `yaml
"FF0000": accent1           # every hard-coded FF0000 becomes a scheme ref
"1F1F1F": dk1
` + "```" + `

Keys are hex values, values are color-map roles (` + "`" + `tx1` + "`" + `, ` + "`" + `bg1` + "`" + `, ` + "`" + `tx2` + "`" + `,
` + "`" + `bg2` + "`" + `, ` + "`" + `accent1` + "`" + `-` + "`" + `accent6` + "`" + `, ` + "`" + `hlink` + "`" + `, ` + "`" + `folHlink` + "`" + `); slot names are accepted
and map through the scheme correspondence (` + "`" + `dk1` + "`" + ` -> ` + "`" + `tx1` + "`" + `, ` + "`" + `lt1` + "`" + ` -> ` + "`" + `bg1` + "`" + `,
and so on). Normalizing is idempotent: colors already expressed as scheme
references are untouched.
`
