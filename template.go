package lcat

import (
	"crypto/md5"
	"encoding/hex"
)

// Template is the internal representation of an individual template to
// process, usually one page. The template retains the relationship between
// its name and contents and carries a content-derived identity used by
// build reporting.
type Template struct {
	// template name, appended to ID
	name string

	// contents is the string contents for the template. It is either given
	// during template creation or read from disk by the caller.
	contents string

	// hexMD5 stores the hex version of the MD5
	hexMD5 string

	// renderer is the default renderer used for this template
	renderer Renderer
}

// Renderer defines the interface used to render (output) a template.
// FileRenderer implements this to write to disk.
type Renderer interface {
	Render(contents []byte) (RenderResult, error)
}

// TemplateInput is used as input when creating the template.
type TemplateInput struct {
	// Optional name for the template. Appended to the ID. Required if you
	// want to tell two templates with the same contents apart.
	Name string

	// Contents are the raw template contents.
	Contents string

	// Renderer is the default renderer used for this template.
	Renderer Renderer
}

// NewTemplate creates a new Template from the given input.
func NewTemplate(i TemplateInput) *Template {
	var t Template
	t.name = i.Name
	t.contents = i.Contents
	t.renderer = i.Renderer

	// Compute the MD5, encode as hex
	hash := md5.Sum([]byte(t.contents))
	t.hexMD5 = hex.EncodeToString(hash[:])

	return &t
}

// ID returns the identifier for this template. Two templates with the same
// name and contents share an ID.
func (t *Template) ID() string {
	if t.name != "" {
		return t.hexMD5 + "_" + t.name
	}
	return t.hexMD5
}

// Name returns the template's human-friendly name.
func (t *Template) Name() string {
	return t.name
}

// Contents returns the raw template text.
func (t *Template) Contents() string {
	return t.contents
}

// Execute evaluates the template against env using the given resolver.
// Resolution never fails; unresolved placeholders render as inline
// diagnostics in the returned text.
func (t *Template) Execute(r *Resolver, env Environment) string {
	return r.Render(t.contents, env)
}

// Render calls the stored Renderer with the passed content.
func (t *Template) Render(content []byte) (RenderResult, error) {
	return t.renderer.Render(content)
}
