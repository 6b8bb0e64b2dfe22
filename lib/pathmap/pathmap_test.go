// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathmap

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRewrite(t *testing.T) {
	table := Table{
		{Local: "/local/", Remote: "/remote/"},
		{Local: "/local/special/", Remote: "/never/"},
		{Local: "/home/user/project", Remote: "/workspace"},
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"match", "/local/a/b", "/remote/a/b"},
		{"no match", "/other/x", "/other/x"},
		{"first match wins", "/local/special/x", "/remote/special/x"},
		{"exact prefix", "/home/user/project", "/workspace"},
		{"prefix without separator", "/home/user/project2/a", "/workspace2/a"},
		{"empty path", "", ""},
		{"prefix in middle", "/x/local/a", "/x/local/a"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := table.Rewrite(test.path); got != test.want {
				t.Errorf("Rewrite(%q) = %q, want %q", test.path, got, test.want)
			}
		})
	}
}

func TestRewriteEmptyTable(t *testing.T) {
	var table Table
	if got := table.Rewrite("/local/a"); got != "/local/a" {
		t.Errorf("Rewrite() on empty table = %q, want unchanged", got)
	}
}

func TestReverse(t *testing.T) {
	table := Table{{Local: "/a/", Remote: "/b/"}, {Local: "/c/", Remote: "/d/"}}
	reversed := table.Reverse()

	want := Table{{Local: "/b/", Remote: "/a/"}, {Local: "/d/", Remote: "/c/"}}
	if !reflect.DeepEqual(reversed, want) {
		t.Errorf("Reverse() = %v, want %v", reversed, want)
	}
	if got := reversed.Rewrite(table.Rewrite("/a/x")); got != "/a/x" {
		t.Errorf("round trip through Reverse = %q, want /a/x", got)
	}
}

func TestParseMapping(t *testing.T) {
	tests := []struct {
		pair    string
		want    Mapping
		wantErr bool
	}{
		{pair: "/local/=/remote/", want: Mapping{Local: "/local/", Remote: "/remote/"}},
		{pair: "C:\\src=/src", want: Mapping{Local: "C:\\src", Remote: "/src"}},
		{pair: "/a=/b=c", want: Mapping{Local: "/a", Remote: "/b=c"}},
		{pair: "/no-separator", wantErr: true},
		{pair: "=/remote", wantErr: true},
		{pair: "/local=", wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseMapping(test.pair)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseMapping(%q) = %v, want error", test.pair, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMapping(%q) error: %v", test.pair, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseMapping(%q) = %v, want %v", test.pair, got, test.want)
		}
		if got.String() != test.pair {
			t.Errorf("String() = %q, want %q", got.String(), test.pair)
		}
	}
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable([]string{"/a/=/b/", "/c/=/d/"})
	if err != nil {
		t.Fatalf("ParseTable() error: %v", err)
	}
	if len(table) != 2 || table[1].Local != "/c/" {
		t.Errorf("ParseTable() = %v", table)
	}

	if _, err := ParseTable([]string{"/a/=/b/", "bad"}); err == nil {
		t.Error("ParseTable() accepted a malformed mapping")
	}
}

func TestFieldTransform(t *testing.T) {
	table := Table{{Local: "/local/", Remote: "/remote/"}}
	transform := FieldTransform(table, "file", "files")

	message := map[string]any{
		"type":    "suite",
		"file":    "/local/a.js",
		"title":   "/local/not-a-path-field",
		"files":   []any{"/local/b.js", "/elsewhere/c.js", json.Number("3")},
		"retries": json.Number("2"),
		"children": []any{
			map[string]any{"file": "/local/nested/d.js"},
			map[string]any{"file": nil},
		},
	}

	got, err := transform(message)
	if err != nil {
		t.Fatalf("transform error: %v", err)
	}

	want := map[string]any{
		"type":    "suite",
		"file":    "/remote/a.js",
		"title":   "/local/not-a-path-field",
		"files":   []any{"/remote/b.js", "/elsewhere/c.js", json.Number("3")},
		"retries": json.Number("2"),
		"children": []any{
			map[string]any{"file": "/remote/nested/d.js"},
			map[string]any{"file": nil},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("transform result = %#v\nwant %#v", got, want)
	}
}

func TestFieldTransformScalarMessage(t *testing.T) {
	transform := FieldTransform(Table{{Local: "/local/", Remote: "/remote/"}}, "file")

	// A bare string is not under any key, so it is not a path field.
	got, err := transform("/local/a.js")
	if err != nil {
		t.Fatalf("transform error: %v", err)
	}
	if got != "/local/a.js" {
		t.Errorf("transform(bare string) = %v, want unchanged", got)
	}
}

func TestFieldTransformIdentity(t *testing.T) {
	message := map[string]any{"file": "/local/a.js"}

	for name, transform := range map[string]func(any) (any, error){
		"no fields":   FieldTransform(Table{{Local: "/local/", Remote: "/remote/"}}),
		"empty table": FieldTransform(nil, "file"),
	} {
		got, err := transform(message)
		if err != nil {
			t.Fatalf("%s: transform error: %v", name, err)
		}
		if got.(map[string]any)["file"] != "/local/a.js" {
			t.Errorf("%s: transform changed the message: %v", name, got)
		}
	}
}
