// Package build walks a content tree, resolves the placeholders in every
// page and writes the results to an output tree. It owns everything around
// the resolution itself: configuration, front matter, page filtering,
// markdown conversion, change watching and the preview server.
package build

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-bexpr"
	"github.com/pkg/errors"
	"gitlab.com/golang-commonmark/markdown"

	"github.com/luacat/lcat"
	"github.com/luacat/lcat/events"
)

// contentExts lists the extensions handled as pages (resolved, possibly
// converted). Anything else under the content directory is copied through
// untouched. The same list doubles as the lookup extensions of the
// directory provider.
var contentExts = []string{".md", ".html", ".htm", ".txt", ".xml"}

// Builder runs build passes over a content tree. One Builder can run any
// number of passes; each pass revisits every file and relies on the
// renderer to skip unchanged outputs.
type Builder struct {
	conf     *Config
	resolver *lcat.Resolver
	handler  events.EventHandler
	filter   *bexpr.Evaluator
	markdown *markdown.Markdown
	stop     func()
}

// BuilderInput is used as input when creating the builder.
type BuilderInput struct {
	// Config drives the build. Nil uses the defaults.
	Config *Config

	// Resolver substitutes placeholders. Optional; without one a resolver
	// is assembled from the config, providers included.
	Resolver *lcat.Resolver

	// Handler receives build events. Optional.
	Handler events.EventHandler
}

// Summary reports what one build pass did.
type Summary struct {
	// Pages counts the files handled, static copies included.
	Pages int

	// Rendered counts the files whose output was written this pass.
	Rendered int

	// Skipped counts the pages dropped by the filter.
	Skipped int
}

// NewBuilder creates a new Builder from the given input.
func NewBuilder(i BuilderInput) (*Builder, error) {
	conf := i.Config
	if conf == nil {
		conf = DefaultConfig()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	b := &Builder{
		conf:     conf,
		resolver: i.Resolver,
		handler:  i.Handler,
		stop:     func() {},
	}
	if b.handler == nil {
		b.handler = func(events.Event) {}
	}

	if b.resolver == nil {
		set, stop, err := newProviders(conf)
		if err != nil {
			stop()
			return nil, err
		}
		b.stop = stop
		b.resolver = lcat.NewResolver(lcat.ResolverInput{
			ContentRoot: conf.ContentRoot,
			Provider:    set,
		})
	}

	if conf.Filter != "" {
		eval, err := bexpr.CreateEvaluator(conf.Filter)
		if err != nil {
			b.stop()
			return nil, errors.Wrap(err, "build")
		}
		b.filter = eval
	}

	if conf.Markdown {
		b.markdown = markdown.New(markdown.HTML(true), markdown.Linkify(true),
			markdown.Typographer(true), markdown.MaxNesting(10))
	}

	return b, nil
}

// Build runs one pass over the content tree. Per-page problems are
// reported as events and never stop the pass; the returned error is
// reserved for failures of the walk itself, such as a missing content
// directory. Dotfiles and dot-directories are left alone.
func (b *Builder) Build() (Summary, error) {
	var sum Summary
	start := time.Now()
	b.handler(events.BuildStart{Root: b.conf.ContentDir})

	err := filepath.WalkDir(b.conf.ContentDir,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == b.conf.ContentDir {
					return err
				}
				b.handler(events.PageError{Name: p, Error: err})
				return nil
			}
			if d.IsDir() {
				if p != b.conf.ContentDir && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			rel, err := filepath.Rel(b.conf.ContentDir, p)
			if err != nil {
				b.handler(events.PageError{Name: p, Error: err})
				return nil
			}

			if isContentExt(filepath.Ext(rel)) {
				b.buildPage(p, rel, &sum)
			} else {
				b.copyFile(p, rel, &sum)
			}
			return nil
		})
	if err != nil {
		return sum, errors.Wrap(err, "build")
	}

	b.handler(events.BuildEnd{
		Pages:    sum.Pages,
		Rendered: sum.Rendered,
		Skipped:  sum.Skipped,
		Elapsed:  time.Since(start),
	})
	return sum, nil
}

// Stop releases the build's provider clients. The builder must not be
// used afterwards.
func (b *Builder) Stop() {
	b.stop()
}

// buildPage takes one page from source text to rendered output: front
// matter, filter, placeholder resolution, markdown, write.
func (b *Builder) buildPage(p, rel string, sum *Summary) {
	data, err := os.ReadFile(p)
	if err != nil {
		b.handler(events.PageError{Name: rel, Error: err})
		return
	}

	meta, body, err := splitFrontMatter(string(data))
	if err != nil {
		// The page still renders, front matter block and all.
		b.handler(events.PageError{Name: rel, Error: err})
	}

	outRel := rel
	convert := b.markdown != nil && strings.EqualFold(filepath.Ext(rel), ".md")
	if convert {
		outRel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
	}

	env := b.pageEnv(rel, outRel, meta)
	sum.Pages++

	if b.filter != nil {
		matched, err := b.filter.Evaluate(map[string]interface{}(env))
		switch {
		case err != nil:
			// An undecidable filter never drops content.
			b.handler(events.Trace{ID: rel, Message: "filter: " + err.Error()})
		case !matched:
			b.handler(events.PageSkipped{Name: rel, Reason: "filter"})
			sum.Skipped++
			return
		}
	}

	outPath := filepath.Join(b.conf.OutputDir, outRel)
	tmpl := lcat.NewTemplate(lcat.TemplateInput{
		Name:     rel,
		Contents: body,
		Renderer: lcat.NewFileRenderer(lcat.FileRendererInput{
			CreateDestDirs: true,
			Path:           outPath,
		}),
	})

	out := tmpl.Execute(b.resolver, env)
	if convert {
		out = b.markdown.RenderToString([]byte(out))
	}

	result, err := tmpl.Render([]byte(out))
	if err != nil {
		b.handler(events.PageError{Name: rel, Error: err})
		return
	}
	if result.DidRender {
		sum.Rendered++
	}
	b.handler(events.PageRendered{
		Name:      rel,
		Path:      outPath,
		DidRender: result.DidRender,
	})
}

// copyFile carries a non-page file into the output tree untouched.
func (b *Builder) copyFile(p, rel string, sum *Summary) {
	data, err := os.ReadFile(p)
	if err != nil {
		b.handler(events.PageError{Name: rel, Error: err})
		return
	}
	sum.Pages++

	outPath := filepath.Join(b.conf.OutputDir, rel)
	renderer := lcat.NewFileRenderer(lcat.FileRendererInput{
		CreateDestDirs: true,
		Path:           outPath,
	})
	result, err := renderer.Render(data)
	if err != nil {
		b.handler(events.PageError{Name: rel, Error: err})
		return
	}
	if result.DidRender {
		sum.Rendered++
	}
	b.handler(events.PageRendered{
		Name:      rel,
		Path:      outPath,
		DidRender: result.DidRender,
	})
}

// pageEnv assembles the environment one page renders against: the shared
// Site values plus a Page mapping of built-ins overlaid with the page's
// front matter.
func (b *Builder) pageEnv(rel, outRel string, meta map[string]interface{}) lcat.Environment {
	base := filepath.Base(rel)
	page := lcat.Environment{
		"Name":   strings.TrimSuffix(base, filepath.Ext(base)),
		"Path":   filepath.ToSlash(rel),
		"Output": filepath.ToSlash(outRel),
	}
	if meta != nil {
		merged, err := page.Merge(meta)
		if err != nil {
			b.handler(events.Trace{ID: rel, Message: "front matter: " + err.Error()})
		} else {
			page = merged
		}
	}

	env := lcat.NewEnvironment()
	if b.conf.Site != nil {
		env["Site"] = b.conf.Site
	}
	env["Page"] = map[string]interface{}(page)
	return env
}

func isContentExt(ext string) bool {
	for _, e := range contentExts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
