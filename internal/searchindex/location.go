package searchindex

import "strings"

// SplitLocation separates a location into its page path and anchor.
// "literated/ECCO_example/#Read-the-data" -> ("literated/ECCO_example/", "Read-the-data")
func SplitLocation(location string) (path, anchor string) {
	path, anchor, _ = strings.Cut(location, "#")
	return path, anchor
}

// Anchor builds the Documenter anchor for a heading.
func Anchor(heading string) string {
	return strings.Join(strings.Fields(heading), "-")
}
