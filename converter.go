package harvest

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms an HTML fragment into Markdown.
	// Returns EINVALID for blank input.
	Convert(html string) (string, error)
}
