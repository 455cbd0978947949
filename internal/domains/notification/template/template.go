// Package template renders the HTML and plain text bodies of outgoing mail.
package template

import (
	"bytes"
	"embed"
	"fmt"
	htmlTemplate "html/template"
	textTemplate "text/template"
)

//go:embed templates
var files embed.FS

var (
	htmlTemplates = htmlTemplate.Must(htmlTemplate.ParseFS(files, "templates/*.html.tmpl"))
	textTemplates = textTemplate.Must(textTemplate.ParseFS(files, "templates/*.txt.tmpl"))
)

// Render executes the named template in both formats.
func Render(name string, data any) (html, text string, err error) {
	var htmlBuf, textBuf bytes.Buffer

	if err = htmlTemplates.ExecuteTemplate(&htmlBuf, name+".html.tmpl", data); err != nil {
		return "", "", fmt.Errorf("failed to render %s html: %w", name, err)
	}

	if err = textTemplates.ExecuteTemplate(&textBuf, name+".txt.tmpl", data); err != nil {
		return "", "", fmt.Errorf("failed to render %s text: %w", name, err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}
