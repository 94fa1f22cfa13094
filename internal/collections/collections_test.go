package collections

import (
	"path/filepath"
	"reflect"
	"testing"

	"ai-image-decoder/internal/model"
)

func TestChain(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "root")
	j := func(p ...string) string { return filepath.Join(append([]string{root}, p...)...) }

	tests := []struct {
		name string
		root string
		file string
		want []model.Folder
	}{
		{
			name: "file in root has no collection",
			root: root,
			file: j("a.png"),
		},
		{
			name: "one level",
			root: root,
			file: j("sub", "a.png"),
			want: []model.Folder{{Path: j("sub"), Name: "sub"}},
		},
		{
			name: "nested levels root-most first",
			root: root,
			file: j("x", "y", "z", "a.png"),
			want: []model.Folder{
				{Path: j("x"), Name: "x"},
				{Path: j("x", "y"), Name: "y"},
				{Path: j("x", "y", "z"), Name: "z"},
			},
		},
		{
			name: "unclean paths normalize",
			root: root + string(filepath.Separator) + ".",
			file: j("sub", "..", "sub", "a.png"),
			want: []model.Folder{{Path: j("sub"), Name: "sub"}},
		},
		{
			name: "file outside root",
			root: j("sub"),
			file: j("other", "a.png"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Chain(tt.root, tt.file)
			if err != nil {
				t.Fatalf("Chain: %v", err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Chain() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestImmediate(t *testing.T) {
	if _, ok := Immediate(nil); ok {
		t.Error("empty chain has no immediate folder")
	}
	chain := []model.Folder{{Path: "/a", Name: "a"}, {Path: "/a/b", Name: "b"}}
	if f, ok := Immediate(chain); !ok || f.Path != "/a/b" {
		t.Errorf("Immediate = %+v, %v", f, ok)
	}
}

func TestNormalizePathRelative(t *testing.T) {
	got, err := NormalizePath("some/../dir")
	if err != nil {
		t.Fatalf("NormalizePath: %v", err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "dir" {
		t.Errorf("NormalizePath = %q", got)
	}
}
