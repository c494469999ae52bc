package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	errPrefixMismatch = errors.New("prefix mismatch")
	errInvalidPath    = errors.New("invalid path")
)

// FileHandler serves the tree under root at URL prefix. Directories get an
// HTML listing. Names are opened through os.Root, so nothing outside root is
// reachable, whether by "..", absolute paths or symlinks.
type FileHandler struct {
	prefix string
	root   string
}

// NewFileHandler expects prefix to be normalized (see NormalizeMountPath).
// root is not checked here; a missing root makes every request fail.
func NewFileHandler(prefix string, root string) *FileHandler {
	return &FileHandler{
		prefix: prefix,
		root:   root,
	}
}

func (h *FileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.handle(w, r)
	default:
		notSupported(w, r, r.URL.Path)
	}
}

// stripPrefix returns the part of p below the mount prefix, always starting
// with "/" or empty when p names the mount point itself.
func (h *FileHandler) stripPrefix(p string) (string, error) {
	if h.prefix == "" || h.prefix == "/" {
		return p, nil
	}
	r := strings.TrimPrefix(p, h.prefix)
	if len(r) == len(p) {
		return p, errPrefixMismatch
	}
	if r != "" && r[0] != '/' {
		// "/staticfoo" is not under "/static"
		return p, errPrefixMismatch
	}
	return r, nil
}

// resolveName turns the request path below the prefix into a name relative
// to the root, "." for the root itself.
func resolveName(rel string) (string, error) {
	if strings.IndexByte(rel, 0) >= 0 {
		return "", errInvalidPath
	}
	p := path.Clean("/" + rel)
	if p == "/" {
		return ".", nil
	}
	return filepath.FromSlash(p[1:]), nil
}

func (h *FileHandler) handle(w http.ResponseWriter, r *http.Request) {
	rel, err := h.stripPrefix(r.URL.Path)
	if err != nil {
		notFound(w, r, r.URL.Path)
		return
	}
	name, err := resolveName(rel)
	if err != nil {
		notFound(w, r, r.URL.Path)
		return
	}

	root, err := os.OpenRoot(h.root)
	if err != nil {
		internalServerError(w, r, fmt.Errorf("open serve root: %w", err))
		return
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		openError(w, r, err)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		internalServerError(w, r, err)
		return
	}

	if fi.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			redirectSlash(w, r)
			return
		}
		h.serveDir(w, r, root, name, f)
		return
	}

	if !fi.Mode().IsRegular() {
		notFound(w, r, r.URL.Path)
		return
	}
	h.serveFile(w, r, f, fi)
}

func (h *FileHandler) serveFile(w http.ResponseWriter, r *http.Request, f *os.File, fi fs.FileInfo) {
	ctype, err := contentType(fi.Name(), f)
	if err != nil {
		internalServerError(w, r, err)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", ctype)
	hdr.Set("Content-Disposition", contentDisposition(ctype, fi.Name()))
	hdr.Set("ETag", findETag(fi))

	// ServeContent streams f and handles Range, HEAD and conditional requests.
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

func openError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, fs.ErrPermission) {
		forbidden(w, r, r.URL.Path)
		return
	}
	// missing, not a directory, or escaping the root
	notFound(w, r, r.URL.Path)
}

// redirectSlash redirects relative to the current directory, so a request
// path starting with "//" cannot become a Location on another host.
func redirectSlash(w http.ResponseWriter, r *http.Request) {
	u := url.URL{Path: path.Base(r.URL.Path) + "/", RawQuery: r.URL.RawQuery}
	http.Redirect(w, r, u.String(), http.StatusMovedPermanently)
}

// findETag follows Apache's mtime+size heuristic.
func findETag(fi fs.FileInfo) string {
	return fmt.Sprintf(`"%x%x"`, fi.ModTime().UnixNano(), fi.Size())
}

// contentType prefers the extension, then sniffs the first 512 bytes. Text
// types without a charset are declared UTF-8.
func contentType(name string, rs io.ReadSeeker) (string, error) {
	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		buf := make([]byte, 512)
		n, err := io.ReadFull(rs, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", err
		}
		ctype = http.DetectContentType(buf[:n])
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
	}
	return preferUTF8(ctype), nil
}

func preferUTF8(ctype string) string {
	mediatype, params, err := mime.ParseMediaType(ctype)
	if err != nil {
		return ctype
	}
	if !isTextual(mediatype) {
		return ctype
	}
	if _, ok := params["charset"]; ok {
		return ctype
	}
	params["charset"] = "utf-8"
	return mime.FormatMediaType(mediatype, params)
}

func isTextual(mediatype string) bool {
	switch mediatype {
	case "application/javascript", "application/json", "application/xml", "image/svg+xml":
		return true
	}
	return strings.HasPrefix(mediatype, "text/")
}

// contentDisposition shows text and media inline and offers everything else
// as a download. Non-ASCII names are encoded as filename*=utf-8''...
func contentDisposition(ctype, name string) string {
	disposition := "attachment"
	mediatype, _, _ := mime.ParseMediaType(ctype)
	switch {
	case isTextual(mediatype),
		strings.HasPrefix(mediatype, "image/"),
		strings.HasPrefix(mediatype, "video/"),
		strings.HasPrefix(mediatype, "audio/"),
		mediatype == "application/pdf":
		disposition = "inline"
	}
	if v := mime.FormatMediaType(disposition, map[string]string{"filename": name}); v != "" {
		return v
	}
	return disposition
}
