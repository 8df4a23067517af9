package lcat

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/luacat/lcat/provider"
)

const (
	leftDelim    = "{#:"
	rightDelim   = ":#}"
	scriptPrefix = "lua::"

	// envSentinel never substitutes when found by the environment stage;
	// authors store the literal value to mark an entry as intentionally
	// unset.
	envSentinel = "env"
)

// Diagnostic texts are part of the rendered output format. Authors grep
// rendered pages for them, so the wording (including the UNDEFIND
// spelling) must stay stable.
const (
	parseErrFormat  = "<pre>Lua:An error occur on parsing luascript\nerror was . . .\n%s</pre>"
	runErrFormat    = "<pre>Lua:An error occur on executing luascript\nerror was . . .\n%s</pre>"
	undefinedFormat = "<pre>LUA:UNDEFIND:'%s'</pre>"
)

// placeholderRe matches one placeholder token. The body is everything up
// to the closing delimiter and may span lines.
var placeholderRe = regexp.MustCompile(`(?s)\{#:(.*?):#\}`)

// Resolver owns the placeholder scanning and substitution pipeline: it
// scans content for {#:body:#} tokens and replaces each with the result of
// a fixed three-stage policy (environment path, embedded Lua, provider
// lookup) or an inline diagnostic. Rendering never fails; every failure is
// localized to its placeholder.
//
// A Resolver is safe for concurrent use as long as each Render call gets
// its own environment; two calls sharing one environment race on
// Page.Content.
type Resolver struct {
	contentRoot string
	lookup      provider.Provider
	sandbox     *Sandbox
}

// ResolverInput is used as input when creating the resolver.
type ResolverInput struct {
	// ContentRoot is the base directory joined in front of every provider
	// path. Optional; paths pass through bare without one.
	ContentRoot string

	// Provider resolves constructed paths to content. Optional; without
	// one the provider stage always misses.
	Provider provider.Provider

	// Sandbox evaluates lua:: fragments. Optional; a default sandbox is
	// created when nil.
	Sandbox *Sandbox
}

// NewResolver creates a new Resolver from the given input.
func NewResolver(i ResolverInput) *Resolver {
	sandbox := i.Sandbox
	if sandbox == nil {
		sandbox = NewSandbox(SandboxInput{})
	}
	return &Resolver{
		contentRoot: i.ContentRoot,
		lookup:      i.Provider,
		sandbox:     sandbox,
	}
}

// Render substitutes every placeholder token in content and returns the
// finished document. A nil environment starts empty. The environment's
// Page mapping is ensured and Page.Content assigned to content before
// scanning, so placeholders and scripts can refer back to the original
// text; both mutations stay visible to the caller.
//
// The scan is a single linear pass: each token is substituted
// independently and resolved values are never rescanned, so placeholder
// syntax inside a resolved value survives verbatim.
func (r *Resolver) Render(content string, env Environment) string {
	if env == nil {
		env = NewEnvironment()
	}
	env.child("Page")["Content"] = content

	return placeholderRe.ReplaceAllStringFunc(content, func(token string) string {
		body := token[len(leftDelim) : len(token)-len(rightDelim)]
		return r.resolve(body, env)
	})
}

// resolve maps one placeholder body to its replacement text. Stages are
// tried in a fixed order, first success wins, and the fallback diagnostic
// catches everything unresolved.
func (r *Resolver) resolve(body string, env Environment) string {
	if s, ok := r.lookupEnv(body, env); ok {
		return s
	}
	if strings.HasPrefix(body, scriptPrefix) {
		return r.evalScript(strings.TrimPrefix(body, scriptPrefix), env)
	}
	if s, ok := r.lookupProvider(body); ok {
		return s
	}
	return fmt.Sprintf(undefinedFormat, body)
}

// lookupEnv is the environment stage: the body splits on dots and the
// segments walk the environment. Two results are refused and count as not
// found: the "env" sentinel, and a value equal to the placeholder token
// itself, so a token resolving to itself reports as undefined instead of
// echoing.
func (r *Resolver) lookupEnv(body string, env Environment) (string, bool) {
	value, ok := env.Get(strings.Split(body, ".")...)
	if !ok {
		return "", false
	}
	s := stringify(value)
	if s == envSentinel || s == leftDelim+body+rightDelim {
		return "", false
	}
	return s, true
}

// evalScript is the script stage: the fragment runs in the sandbox with
// the environment as its only argument. Failures render inline and the
// surrounding render continues.
func (r *Resolver) evalScript(code string, env Environment) string {
	result, err := r.sandbox.Eval(code, env)
	switch err.(type) {
	case nil:
		return result
	case *ScriptParseError:
		return fmt.Sprintf(parseErrFormat, err)
	default:
		return fmt.Sprintf(runErrFormat, err)
	}
}

// lookupProvider is the provider stage: the body up to the first '|'
// converts dots to slashes and joins under the content root. Only string
// results substitute; any other value, and any fetch error, leaves the
// placeholder for the fallback.
func (r *Resolver) lookupProvider(body string) (string, bool) {
	if r.lookup == nil {
		return "", false
	}

	name := body
	if idx := strings.Index(name, "|"); idx >= 0 {
		name = name[:idx]
	}
	p := strings.ReplaceAll(name, ".", "/")
	if r.contentRoot != "" {
		p = path.Join(r.contentRoot, p)
	}

	value, err := r.lookup.Fetch(p)
	if err != nil {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// stringify converts a resolved environment value to its replacement
// text. Strings pass through untouched.
func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
