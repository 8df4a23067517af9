package build

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestSplitFrontMatter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		meta    map[string]interface{}
		body    string
	}{
		{
			"no_front_matter",
			"plain content, no fences\n",
			nil,
			"plain content, no fences\n",
		},
		{
			"not_on_first_line",
			"\n---\ntitle: Home\n---\nbody\n",
			nil,
			"\n---\ntitle: Home\n---\nbody\n",
		},
		{
			"basic",
			"---\ntitle: Home\ndraft: true\n---\nbody text\n",
			map[string]interface{}{"title": "Home", "draft": true},
			"body text\n",
		},
		{
			"nested_maps",
			"---\nauthor:\n  name: amy\n  team: docs\n---\nbody\n",
			map[string]interface{}{
				"author": map[string]interface{}{"name": "amy", "team": "docs"},
			},
			"body\n",
		},
		{
			"lists",
			"---\ntags:\n  - go\n  - lua\n---\nbody\n",
			map[string]interface{}{
				"tags": []interface{}{"go", "lua"},
			},
			"body\n",
		},
		{
			"non_string_keys_stringified",
			"---\n2024: archived\n---\nbody\n",
			map[string]interface{}{"2024": "archived"},
			"body\n",
		},
		{
			"crlf",
			"---\r\ntitle: Home\r\n---\r\nbody\r\n",
			map[string]interface{}{"title": "Home"},
			"body\r\n",
		},
		{
			"empty_block",
			"---\n---\nbody\n",
			nil,
			"body\n",
		},
		{
			"fence_at_eof",
			"---\ntitle: Home\n---",
			map[string]interface{}{"title": "Home"},
			"",
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", i, tc.name), func(t *testing.T) {
			meta, body, err := splitFrontMatter(tc.content)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(meta, tc.meta) {
				t.Errorf("\nexp: %#v\nact: %#v", tc.meta, meta)
			}
			if body != tc.body {
				t.Errorf("\nexp: %#v\nact: %#v", tc.body, body)
			}
		})
	}
}

func TestSplitFrontMatterErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		err     string
	}{
		{
			"missing_closing_fence",
			"---\ntitle: Home\nbody without a close\n",
			"missing closing",
		},
		{
			"bad_yaml",
			"---\ntitle: [unclosed\n---\nbody\n",
			"front matter",
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", i, tc.name), func(t *testing.T) {
			meta, body, err := splitFrontMatter(tc.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.err) {
				t.Errorf("\nexp: %#v\nact: %#v", tc.err, err.Error())
			}
			if meta != nil {
				t.Errorf("expected no metadata, got %#v", meta)
			}
			// The caller still renders the page, so it gets the content back
			// exactly as read.
			if body != tc.content {
				t.Errorf("\nexp: %#v\nact: %#v", tc.content, body)
			}
		})
	}
}
