package viewer

// Texts shown in the content pane when no file content is available.
const (
	PlaceholderText = "Please select a log file"
	LoadingText     = "Loading..."
)

// ContentKind is the state of the content pane.
type ContentKind int

const (
	ContentPlaceholder ContentKind = iota
	ContentLoading
	ContentLoaded
)

func (k ContentKind) String() string {
	switch k {
	case ContentLoading:
		return "loading"
	case ContentLoaded:
		return "loaded"
	default:
		return "placeholder"
	}
}

// Content is what the content pane shows. Text is only meaningful when Kind
// is ContentLoaded.
type Content struct {
	Kind ContentKind
	Text string
}

// Placeholder is the content of an empty or directory selection.
func Placeholder() Content { return Content{Kind: ContentPlaceholder} }

// Loading is the content while a fetch is in flight.
func Loading() Content { return Content{Kind: ContentLoading} }

// Loaded wraps fetched text.
func Loaded(text string) Content { return Content{Kind: ContentLoaded, Text: text} }

// Display returns the text to render.
func (c Content) Display() string {
	switch c.Kind {
	case ContentLoading:
		return LoadingText
	case ContentLoaded:
		return c.Text
	default:
		return PlaceholderText
	}
}
