package archive

// Mode decides how a batch of search results is shown to the user.
type Mode int

const (
	// ModeEmpty means nothing matched.
	ModeEmpty Mode = iota
	// ModePreview means each match is sent back as a photo.
	ModePreview
	// ModeListing means there are too many matches for previews and only
	// a text listing is sent.
	ModeListing
)

// PresentationMode picks the mode for n results given the preview
// ceiling.
func PresentationMode(n, previewLimit int) Mode {
	switch {
	case n == 0:
		return ModeEmpty
	case n <= previewLimit:
		return ModePreview
	default:
		return ModeListing
	}
}

// Caption renders the two-line caption attached to a photo preview.
func Caption(name, date string) string {
	return "📄 " + name + "\n📅 " + date
}

// ListingLine renders one row of the text listing used when there are
// too many matches to preview.
func ListingLine(name, date string) string {
	return "📄 " + name + " (📅 " + date + ")"
}
