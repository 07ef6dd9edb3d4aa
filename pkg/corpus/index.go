package corpus

import (
	"log/slog"
	"strings"
)

// Index is an immutable catalog of every well-formed corpus file.
// It is built once from an object listing and is safe for concurrent
// reads afterwards.
type Index struct {
	byName map[string]File
	files  []File // listing order, minus skipped entries
}

type identity struct {
	kind  Kind
	id    int
	index int
}

// BuildIndex parses every name in the listing into a File. Names that do
// not match the grammar, duplicate names, and duplicate (kind, id, index)
// identities are skipped and logged rather than failing the build; the
// corpus is known to be messy and one bad object must not take down a run.
func BuildIndex(log *slog.Logger, listing []string) *Index {
	ix := &Index{
		byName: make(map[string]File, len(listing)),
		files:  make([]File, 0, len(listing)),
	}
	seen := make(map[identity]string, len(listing))

	for _, name := range listing {
		f, err := ParseFilename(name)
		if err != nil {
			log.Warn("skipping corpus object", "error", err)
			continue
		}
		if _, ok := ix.byName[f.Name]; ok {
			log.Warn("skipping duplicate corpus object", "name", f.Name)
			continue
		}
		id := identity{kind: f.Kind, id: f.ID, index: f.Index}
		if prev, ok := seen[id]; ok {
			log.Warn("skipping corpus object with duplicate identity",
				"name", f.Name, "kind", f.Kind, "id", f.ID, "index", f.Index, "first", prev)
			continue
		}
		seen[id] = f.Name
		ix.byName[f.Name] = f
		ix.files = append(ix.files, f)
	}

	log.Info("built corpus index", "listed", len(listing), "indexed", len(ix.files))
	return ix
}

// Exists reports whether name is a well-formed, indexed corpus file.
func (ix *Index) Exists(name string) bool {
	_, ok := ix.byName[name]
	return ok
}

// Lookup returns the parsed identity of an indexed file.
func (ix *Index) Lookup(name string) (File, bool) {
	f, ok := ix.byName[name]
	return f, ok
}

// Search returns every indexed file whose page name contains keyword,
// case-insensitively, in listing order. The returned slice is freshly
// allocated and safe to re-iterate.
func (ix *Index) Search(keyword string) []File {
	kw := strings.ToLower(keyword)
	var out []File
	for _, f := range ix.files {
		if strings.Contains(strings.ToLower(f.Page), kw) {
			out = append(out, f)
		}
	}
	return out
}

// Files returns all indexed files in listing order.
func (ix *Index) Files() []File {
	out := make([]File, len(ix.files))
	copy(out, ix.files)
	return out
}

func (ix *Index) Len() int {
	return len(ix.files)
}
