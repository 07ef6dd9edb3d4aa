// Package corpus catalogs the data lake by parsing object names into
// structured file identities and serving existence and search queries.
package corpus

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the representation class of a corpus file.
type Kind string

const (
	KindTable   Kind = "table"
	KindPassage Kind = "passage"
)

// File is the parsed identity of one corpus object. The corpus is
// read-only, so a File never changes after the index is built.
type File struct {
	Name    string // full object name, unique within the corpus
	Kind    Kind
	Subkind string
	ID      int    // numeric id shared by files derived from the same source page
	Page    string // source page name, may contain underscores
	Index   int    // position of this file within its source page
	Ext     string
}

// MalformedFilenameError reports an object name that does not match the
// corpus naming grammar. Index construction skips and logs these.
type MalformedFilenameError struct {
	Name   string
	Reason string
}

func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("malformed filename %q: %s", e.Name, e.Reason)
}

// ParseFilename parses an object name of the form
// <kind>_<subkind>_<id>_<page-name>_<index>.<ext> into a File.
// The page name may itself contain underscores, so the fixed fields are
// taken from both ends and the remainder is the page name.
func ParseFilename(name string) (File, error) {
	base := name
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}

	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 || dot == len(base)-1 {
		return File{}, &MalformedFilenameError{Name: name, Reason: "missing extension"}
	}
	stem, ext := base[:dot], base[dot+1:]

	parts := strings.Split(stem, "_")
	if len(parts) < 5 {
		return File{}, &MalformedFilenameError{Name: name, Reason: "expected kind_subkind_id_page_index"}
	}

	kind := Kind(parts[0])
	if kind != KindTable && kind != KindPassage {
		return File{}, &MalformedFilenameError{Name: name, Reason: fmt.Sprintf("unknown kind %q", parts[0])}
	}

	subkind := parts[1]
	if subkind == "" {
		return File{}, &MalformedFilenameError{Name: name, Reason: "empty subkind"}
	}

	id, err := strconv.Atoi(parts[2])
	if err != nil || id < 0 {
		return File{}, &MalformedFilenameError{Name: name, Reason: fmt.Sprintf("non-numeric id %q", parts[2])}
	}

	last := parts[len(parts)-1]
	index, err := strconv.Atoi(last)
	if err != nil || index < 0 {
		return File{}, &MalformedFilenameError{Name: name, Reason: fmt.Sprintf("non-numeric index %q", last)}
	}

	page := strings.Join(parts[3:len(parts)-1], "_")
	if page == "" {
		return File{}, &MalformedFilenameError{Name: name, Reason: "empty page name"}
	}

	return File{
		Name:    name,
		Kind:    kind,
		Subkind: subkind,
		ID:      id,
		Page:    page,
		Index:   index,
		Ext:     ext,
	}, nil
}
