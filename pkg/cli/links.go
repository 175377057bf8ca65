package cli

import (
	"github.com/savioxavier/termlink"
)

var termSupportsHyperlinks = termlink.SupportsHyperlinks()

func hyperlink(text, url string) string {
	if !termSupportsHyperlinks {
		return text
	}
	return termlink.Link(text, url)
}
