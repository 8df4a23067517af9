package build

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const frontMatterFence = "---"

// splitFrontMatter separates a page into its YAML front matter block and
// body. The block must start on the first line between "---" fences; pages
// without one return nil metadata and the content untouched.
func splitFrontMatter(content string) (map[string]interface{}, string, error) {
	rest, found := strings.CutPrefix(content, frontMatterFence+"\n")
	if !found {
		// Tolerate CRLF from editors that insist on it.
		rest, found = strings.CutPrefix(content, frontMatterFence+"\r\n")
	}
	if !found {
		return nil, content, nil
	}

	block, body, found := cutFence(rest)
	if !found {
		return nil, content, fmt.Errorf("front matter: missing closing %q", frontMatterFence)
	}

	var raw map[interface{}]interface{}
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, content, errors.Wrap(err, "front matter")
	}
	return stringKeys(raw), body, nil
}

// cutFence finds the closing fence on its own line.
func cutFence(s string) (block, body string, found bool) {
	for _, fence := range []string{
		"\n" + frontMatterFence + "\n",
		"\n" + frontMatterFence + "\r\n",
		"\r\n" + frontMatterFence + "\r\n",
	} {
		if block, body, found = strings.Cut(s, fence); found {
			return block, body, true
		}
	}
	// A fence at the very start means an empty block.
	if rest, ok := strings.CutPrefix(s, frontMatterFence+"\n"); ok {
		return "", rest, true
	}
	// A closing fence ending the content with no trailing newline.
	if block, ok := strings.CutSuffix(s, "\n"+frontMatterFence); ok {
		return block, "", true
	}
	return "", "", false
}

// stringKeys rewrites the map[interface{}]interface{} values the YAML
// decoder produces into map[string]interface{} all the way down, so the
// result can be walked by dotted placeholder paths.
func stringKeys(in map[interface{}]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[fmt.Sprintf("%v", k)] = stringValue(v)
	}
	return out
}

func stringValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[interface{}]interface{}:
		return stringKeys(tv)
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, e := range tv {
			out[i] = stringValue(e)
		}
		return out
	default:
		return v
	}
}
