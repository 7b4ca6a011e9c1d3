package deck

// Info is the shallow summary of a deck used by listings and inspection.
type Info struct {
	Kind         string  `json:"kind"`
	Slides       int     `json:"slides"`
	Layouts      int     `json:"layouts"`
	Masters      int     `json:"masters"`
	ThemeName    string  `json:"theme_name"`
	ThemePart    string  `json:"theme_part"`
	WidthEMU     int64   `json:"width_emu"`
	HeightEMU    int64   `json:"height_emu"`
	WidthInches  float64 `json:"width_in"`
	HeightInches float64 `json:"height_in"`
}

// Info collects the deck summary. Parts that fail to parse zero their
// fields rather than failing the whole summary.
func (d *Deck) Info() (Info, error) {
	info := Info{Kind: "presentation"}

	pres, err := d.PresentationPart()
	if err != nil {
		return info, err
	}
	if ct, ctErr := d.pkg.ContentTypeOf(pres); ctErr == nil && ct == CTTemplate {
		info.Kind = "template"
	}

	if slides, sErr := d.SlideParts(); sErr == nil {
		info.Slides = len(slides)
	}
	if layouts, lErr := d.LayoutParts(); lErr == nil {
		info.Layouts = len(layouts)
	}
	if masters, mErr := d.MasterParts(); mErr == nil {
		info.Masters = len(masters)
	}

	if theme, tErr := d.ThemePart(); tErr == nil {
		info.ThemePart = theme
		if doc, dErr := d.Doc(theme); dErr == nil {
			info.ThemeName = doc.Root.Attr("name")
		}
	}

	if cx, cy, szErr := d.SlideSize(); szErr == nil {
		info.WidthEMU = cx
		info.HeightEMU = cy
		info.WidthInches = float64(cx) / float64(EMUPerInch)
		info.HeightInches = float64(cy) / float64(EMUPerInch)
	}

	return info, nil
}
