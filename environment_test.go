package lcat

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestNewEnvironment(t *testing.T) {
	t.Parallel()
	env := NewEnvironment()

	if env == nil {
		t.Errorf("expected environment to not be nil")
	}
	if len(env) != 0 {
		t.Errorf("expected environment to start empty, got %#v", env)
	}
}

func TestEnvironmentGet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		env  Environment
		path []string
		e    interface{}
		ok   bool
	}{
		{
			"top_level",
			Environment{"Title": "home"},
			[]string{"Title"},
			"home",
			true,
		},
		{
			"nested_plain_map",
			Environment{"A": map[string]interface{}{"B": "x"}},
			[]string{"A", "B"},
			"x",
			true,
		},
		{
			"nested_environment",
			Environment{"A": Environment{"B": "x"}},
			[]string{"A", "B"},
			"x",
			true,
		},
		{
			"deep_path",
			Environment{"A": map[string]interface{}{
				"B": map[string]interface{}{"C": "deep"},
			}},
			[]string{"A", "B", "C"},
			"deep",
			true,
		},
		{
			"missing_key",
			Environment{"A": "x"},
			[]string{"B"},
			nil,
			false,
		},
		{
			"missing_nested",
			Environment{"A": map[string]interface{}{"B": "x"}},
			[]string{"A", "C"},
			nil,
			false,
		},
		{
			"scalar_blocks_walk",
			Environment{"A": "x"},
			[]string{"A", "B"},
			nil,
			false,
		},
		{
			"non_string_value",
			Environment{"N": 42},
			[]string{"N"},
			42,
			true,
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", i, tc.name), func(t *testing.T) {
			act, ok := tc.env.Get(tc.path...)
			if ok != tc.ok {
				t.Fatalf("expected found to be %v, got %v", tc.ok, ok)
			}
			if !reflect.DeepEqual(tc.e, act) {
				t.Errorf("\nexp: %#v\nact: %#v", tc.e, act)
			}
		})
	}
}

func TestEnvironmentSet(t *testing.T) {
	t.Parallel()

	t.Run("creates_intermediates", func(t *testing.T) {
		env := NewEnvironment()
		if err := env.Set("x", "A", "B", "C"); err != nil {
			t.Fatal(err)
		}
		act, ok := env.Get("A", "B", "C")
		if !ok || act != "x" {
			t.Errorf("expected %q at A.B.C, got %#v (found %v)", "x", act, ok)
		}
	})

	t.Run("existing_intermediate", func(t *testing.T) {
		env := Environment{"A": map[string]interface{}{"keep": "me"}}
		if err := env.Set("x", "A", "B"); err != nil {
			t.Fatal(err)
		}
		if act, _ := env.Get("A", "B"); act != "x" {
			t.Errorf("expected %q at A.B, got %#v", "x", act)
		}
		if act, _ := env.Get("A", "keep"); act != "me" {
			t.Errorf("expected sibling to survive, got %#v", act)
		}
	})

	t.Run("scalar_conflict", func(t *testing.T) {
		env := Environment{"A": "scalar"}
		err := env.Set("x", "A", "B")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "not a map") {
			t.Errorf("bad error: %s", err)
		}
	})

	t.Run("empty_path", func(t *testing.T) {
		env := NewEnvironment()
		if err := env.Set("x"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestEnvironmentMerge(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		env  Environment
		src  map[string]interface{}
		e    Environment
	}{
		{
			"adds_keys",
			Environment{"A": "1"},
			map[string]interface{}{"B": "2"},
			Environment{"A": "1", "B": "2"},
		},
		{
			"overrides_values",
			Environment{"A": "1"},
			map[string]interface{}{"A": "2"},
			Environment{"A": "2"},
		},
		{
			"merges_nested",
			Environment{"N": map[string]interface{}{"x": "1"}},
			map[string]interface{}{"N": map[string]interface{}{"y": "2"}},
			Environment{"N": map[string]interface{}{"x": "1", "y": "2"}},
		},
		{
			"nil_src",
			Environment{"A": "1"},
			nil,
			Environment{"A": "1"},
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", i, tc.name), func(t *testing.T) {
			act, err := tc.env.Merge(tc.src)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(tc.e, act) {
				t.Errorf("\nexp: %#v\nact: %#v", tc.e, act)
			}
		})
	}
}

func TestEnvironmentChild(t *testing.T) {
	t.Parallel()

	t.Run("creates_missing", func(t *testing.T) {
		env := NewEnvironment()
		env.child("Page")["Content"] = "body"
		act, ok := env.Get("Page", "Content")
		if !ok || act != "body" {
			t.Errorf("expected child write to land, got %#v (found %v)", act, ok)
		}
	})

	t.Run("shares_existing_map", func(t *testing.T) {
		page := map[string]interface{}{"Title": "home"}
		env := Environment{"Page": page}
		env.child("Page")["Content"] = "body"
		if page["Content"] != "body" {
			t.Errorf("expected write to reach the caller's map, got %#v", page)
		}
		if page["Title"] != "home" {
			t.Errorf("expected existing keys to survive, got %#v", page)
		}
	})

	t.Run("replaces_scalar", func(t *testing.T) {
		env := Environment{"Page": "scalar"}
		env.child("Page")["Content"] = "body"
		act, ok := env.Get("Page", "Content")
		if !ok || act != "body" {
			t.Errorf("expected scalar to be replaced, got %#v (found %v)", act, ok)
		}
	})
}
