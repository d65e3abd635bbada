/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package static is a built-in handler plugin: a router.Handler that
// serves files out of a root directory, with per-file download
// (Content-Disposition) flags, per-route index files, per-route
// redirects, and an escape hatch to override a single route with a
// caller-supplied router.Handler.
package static

import (
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nabbar/uvhttp/http11"
	"github.com/nabbar/uvhttp/router"
)

// Handler serves static files rooted at a directory through this
// module's router.Handler signature.
type Handler struct {
	root string

	mu       sync.RWMutex
	download map[string]bool
	index    map[string]string
	redirect map[string]string
	specific map[string]router.Handler
}

// New returns a Handler serving files under root. root is cleaned once
// here; every later lookup re-validates the joined path stays under it.
func New(root string) *Handler {
	return &Handler{
		root:     filepath.Clean(root),
		download: make(map[string]bool),
		index:    make(map[string]string),
		redirect: make(map[string]string),
		specific: make(map[string]router.Handler),
	}
}

func routeKey(group, route string) string {
	return path.Join("/", group, route)
}

// resolve joins reqPath onto root and rejects any result that escapes
// root, e.g. via ".." segments or an absolute override.
func (h *Handler) resolve(reqPath string) (string, bool) {
	clean := path.Clean("/" + reqPath)
	full := filepath.Join(h.root, filepath.FromSlash(clean))

	rel, err := filepath.Rel(h.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return full, true
}

// SetDownload marks path (relative to root) as downloadable: responses
// for it carry Content-Disposition: attachment. Non-existent files and
// an empty path are ignored.
func (h *Handler) SetDownload(relPath string, v bool) {
	if relPath == "" {
		return
	}

	full, ok := h.resolve(relPath)
	if !ok {
		return
	}
	if _, err := os.Stat(full); err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if v {
		h.download[path.Clean("/"+relPath)] = true
	} else {
		delete(h.download, path.Clean("/"+relPath))
	}
}

// IsDownload reports whether relPath was marked downloadable.
func (h *Handler) IsDownload(relPath string) bool {
	if relPath == "" {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.download[path.Clean("/"+relPath)]
}

// SetIndex registers relFile as the index file served for (group, route).
func (h *Handler) SetIndex(group, route, relFile string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.index[routeKey(group, route)] = relFile
}

// GetIndex returns the index file registered for (group, route), or "".
func (h *Handler) GetIndex(group, route string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.index[routeKey(group, route)]
}

// IsIndex reports whether relFile is registered as an index for any route.
func (h *Handler) IsIndex(relFile string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, f := range h.index {
		if f == relFile {
			return true
		}
	}
	return false
}

// SetRedirect registers target as a redirect destination for (group, route).
func (h *Handler) SetRedirect(group, route, target string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redirect[routeKey(group, route)] = target
}

// GetRedirect returns the redirect target for (group, route), or "".
func (h *Handler) GetRedirect(group, route string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.redirect[routeKey(group, route)]
}

// IsRedirect reports whether (group, route) has a registered redirect.
func (h *Handler) IsRedirect(group, route string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.redirect[routeKey(group, route)]
	return ok
}

// SetSpecific overrides (group, route) with a caller-supplied handler,
// bypassing file lookup entirely.
func (h *Handler) SetSpecific(group, route string, fct router.Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.specific[routeKey(group, route)] = fct
}

// GetSpecific returns the handler registered for (group, route), or nil.
func (h *Handler) GetSpecific(group, route string) router.Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.specific[routeKey(group, route)]
}

// Handler returns a router.Handler serving files under prefix: prefix
// itself (or its registered index) and prefix+"/*" for everything below
// it. Register it with rt.AddRoute(prefix+"/*", h.Handler(group, prefix)).
func (h *Handler) Handler(group, prefix string) router.Handler {
	return func(req *http11.Request) *router.Response {
		if fct := h.GetSpecific(group, req.Path); fct != nil {
			return fct(req)
		}

		if target := h.GetRedirect(group, req.Path); target != "" {
			resp := router.NewResponse(true)
			resp.SetStatus(http.StatusFound)
			resp.SetHeader("Location", target)
			resp.SetBody(nil)
			return resp
		}

		rel := strings.TrimPrefix(req.Path, prefix)
		if rel == "" || rel == "/" {
			if idx := h.GetIndex(group, req.Path); idx != "" {
				rel = idx
			} else {
				rel = "index.html"
			}
		}

		return h.serveFile(rel)
	}
}

func (h *Handler) serveFile(relPath string) *router.Response {
	full, ok := h.resolve(relPath)
	if !ok {
		return notFound()
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return notFound()
	}

	body, err := os.ReadFile(full)
	if err != nil {
		return notFound()
	}

	resp := router.NewResponse(true)
	resp.SetStatus(http.StatusOK)

	ct := mime.TypeByExtension(filepath.Ext(full))
	if ct == "" {
		ct = "application/octet-stream"
	}
	resp.SetHeader("Content-Type", ct)

	if h.IsDownload(relPath) {
		resp.SetHeader("Content-Disposition", "attachment; filename=\""+filepath.Base(full)+"\"")
	}

	resp.SetBody(body)
	return resp
}

func notFound() *router.Response {
	resp := router.NewResponse(true)
	resp.SetStatus(http.StatusNotFound)
	resp.SetBody(nil)
	return resp
}

// Walk visits every regular file under root, relative-pathed from it.
func (h *Handler) Walk(fn func(relPath string, info fs.FileInfo) error) error {
	return filepath.Walk(h.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, e := filepath.Rel(h.root, p)
		if e != nil {
			return e
		}
		return fn(filepath.ToSlash(rel), info)
	})
}
