package deck

// DrawingML / PresentationML namespaces.
const (
	NSDrawing      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSPresentation = "http://schemas.openxmlformats.org/presentationml/2006/main"
	NSDocRels      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Relationship types used by presentation packages.
const (
	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	RelTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	RelTypeSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	RelTypeTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	RelTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Content types for the parts this tool edits.
const (
	CTPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	CTTemplate     = "application/vnd.openxmlformats-officedocument.presentationml.template.main+xml"
	CTSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	CTSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	CTSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	CTTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"
)

// EMUPerInch is the English Metric Unit scale used for slide geometry.
const EMUPerInch = 914400

// Inches converts inches to EMU.
func Inches(in float64) int64 {
	return int64(in * EMUPerInch)
}
