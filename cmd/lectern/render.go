package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

const wordWrap = 100

// renderMarkdown writes md to w, styled for the terminal unless raw is set.
func renderMarkdown(w io.Writer, md string, raw bool) error {
	if raw {
		_, err := fmt.Fprintln(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
