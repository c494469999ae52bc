package server

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

type listingEntry struct {
	Name    string
	Href    string
	IsDir   bool
	Size    string
	ModTime string

	sortKey string
}

type listingPage struct {
	Path      string
	HasParent bool
	Entries   []listingEntry
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Index of {{.Path}}</title>
  <style>
    body { margin: 1.5rem; font-family: system-ui, sans-serif; }
    table { border-collapse: collapse; width: 100%; }
    td, th { padding: 0.35rem 0.6rem; text-align: left; border-bottom: 1px solid #ddd; }
    td.size, th.size { text-align: right; font-variant-numeric: tabular-nums; }
    a { text-decoration: none; }
  </style>
</head>
<body>
  <h1>Index of {{.Path}}</h1>
  <table>
    <thead><tr><th>Name</th><th>Type</th><th class="size">Size</th><th>Modified</th></tr></thead>
    <tbody>
{{- if .HasParent}}
      <tr class="parent"><td><a href="../">../</a></td><td>directory</td><td class="size"></td><td></td></tr>
{{- end}}
{{- range .Entries}}
      <tr class="{{if .IsDir}}dir{{else}}file{{end}}"><td><a href="{{.Href}}">{{.Name}}{{if .IsDir}}/{{end}}</a></td><td>{{if .IsDir}}directory{{else}}file{{end}}</td><td class="size">{{.Size}}</td><td>{{.ModTime}}</td></tr>
{{- end}}
    </tbody>
  </table>
</body>
</html>
`))

// serveDir lists the immediate entries of dir, the directory name within
// root. Entries that cannot be resolved inside root, such as symlinks
// pointing elsewhere, are left out.
func (h *FileHandler) serveDir(w http.ResponseWriter, r *http.Request, root *os.Root, name string, dir *os.File) {
	des, err := dir.ReadDir(-1)
	if err != nil {
		internalServerError(w, r, err)
		return
	}

	entries := make([]listingEntry, 0, len(des))
	for _, de := range des {
		fi, err := de.Info()
		if err != nil {
			continue
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			fi, err = root.Stat(filepath.Join(name, de.Name()))
			if err != nil {
				continue
			}
		}
		entries = append(entries, newListingEntry(de.Name(), fi))
	}
	sortEntries(entries)

	page := listingPage{
		Path:      displayName(r.URL.Path),
		HasParent: r.URL.Path != h.prefix+"/" && r.URL.Path != "/",
		Entries:   entries,
	}

	var buf bytes.Buffer
	if err := listingTemplate.Execute(&buf, page); err != nil {
		internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(buf.Bytes())
	}
}

func newListingEntry(name string, fi fs.FileInfo) listingEntry {
	e := listingEntry{
		Name:    displayName(name),
		IsDir:   fi.IsDir(),
		ModTime: fi.ModTime().Format(time.DateTime),
	}
	// the href keeps the on-disk bytes so the link opens the same entry
	e.Href = (&url.URL{Path: name}).EscapedPath()
	if strings.Contains(name, ":") {
		// keep "a:b" from parsing as a scheme
		e.Href = "./" + e.Href
	}
	if e.IsDir {
		e.Href += "/"
	} else {
		e.Size = humanize.IBytes(uint64(fi.Size()))
	}
	e.sortKey = e.Name
	return e
}

// displayName replaces invalid UTF-8 and composes to NFC, so names written
// by systems that store decomposed forms render the same.
func displayName(s string) string {
	return norm.NFC.String(strings.ToValidUTF8(s, "\uFFFD"))
}

// sortEntries puts directories first, then orders by name using the root
// collation, ignoring case.
func sortEntries(entries []listingEntry) {
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		if c := col.CompareString(a.sortKey, b.sortKey); c != 0 {
			return c < 0
		}
		return a.sortKey < b.sortKey
	})
}
