// seehuhn.de/go/fontpick - extract minimal font subsets for a given text
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package acquire loads the raw bytes of a font from a local file, from an
// installed system font, or over HTTP(S).
package acquire

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/flopp/go-findfont"
)

// MaxSize is the largest font file which will be loaded.
const MaxSize = 256 << 20

// Error is returned when the font data cannot be obtained.
type Error struct {
	Source string
	Err    error
}

func (err *Error) Error() string {
	return "cannot load " + err.Source + ": " + err.Err.Error()
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Loader obtains font data.  The zero value reads local files relative to
// the current directory and uses DefaultClient for URLs.
type Loader struct {
	// Dir is the directory relative file names are resolved against.
	Dir string

	// Client is used for http and https sources.  If this is nil,
	// DefaultClient() is used.
	Client *http.Client

	// SystemFonts enables the lookup of bare file names like "DejaVuSans.ttf"
	// in the system font directories, if no such file exists in Dir.
	SystemFonts bool

	Logger *slog.Logger
}

// Result describes data obtained by a Loader.
type Result struct {
	Data []byte

	// Path is the resolved file name, or the URL for remote sources.
	Path string

	// Ext is the file name extension of the source, including the dot.
	Ext string

	// Size is the size of the file on disk, or 0 for remote sources.
	Size int64
}

// Load reads the font data from the given source.
// Any error returned is of type *Error.
func (l *Loader) Load(ctx context.Context, source string) (*Result, error) {
	if source == "" {
		return nil, &Error{Source: source, Err: errors.New("empty source")}
	}

	var res *Result
	var err error
	if IsURL(source) {
		res, err = l.fetch(ctx, source)
	} else {
		res, err = l.readFile(source)
	}
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}

	l.logger().Debug("font data loaded",
		slog.String("source", source),
		slog.String("path", res.Path),
		slog.Int("bytes", len(res.Data)))
	return res, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.New(discard{})
}

// Resolve returns the file name which Load reads for a local source.
func (l *Loader) Resolve(source string) string {
	if filepath.IsAbs(source) || l.Dir == "" {
		return filepath.Clean(source)
	}
	return filepath.Join(l.Dir, source)
}

func (l *Loader) readFile(source string) (*Result, error) {
	fname := l.Resolve(source)
	fi, err := os.Stat(fname)
	if errors.Is(err, fs.ErrNotExist) && l.SystemFonts && isBareName(source) {
		if sys, findErr := findfont.Find(source); findErr == nil {
			l.logger().Debug("using system font", slog.String("path", sys))
			fname = sys
			fi, err = os.Stat(fname)
		}
	}
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", fname)
	}
	if fi.Size() > MaxSize {
		return nil, fmt.Errorf("file too large (%d bytes)", fi.Size())
	}

	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return &Result{
		Data: data,
		Path: fname,
		Ext:  strings.ToLower(filepath.Ext(fname)),
		Size: fi.Size(),
	}, nil
}

func (l *Loader) fetch(ctx context.Context, source string) (*Result, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = DefaultClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status %q", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("response too large")
	}
	return &Result{
		Data: data,
		Path: source,
		Ext:  strings.ToLower(path.Ext(u.Path)),
	}, nil
}

// IsURL reports whether the source is an http or https URL.
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Ext returns the lower-case file name extension of a source, including
// the dot.  For URLs, the query string and fragment are ignored.
func Ext(source string) string {
	if IsURL(source) {
		u, err := url.Parse(source)
		if err != nil {
			return ""
		}
		return strings.ToLower(path.Ext(u.Path))
	}
	return strings.ToLower(filepath.Ext(source))
}

// BaseName returns the file name of a source, without directory and
// extension.
func BaseName(source string) string {
	name := source
	if IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			name = path.Base(u.Path)
		}
	} else {
		name = filepath.Base(source)
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" || name == "." || name == "/" {
		name = "font"
	}
	return name
}

// DefaultClient returns the HTTP client used when Loader.Client is nil.
// Certificates of https servers are not verified.
func DefaultClient() *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	return &http.Client{
		Transport: tr,
		Timeout:   2 * time.Minute,
	}
}

func isBareName(source string) bool {
	return !strings.ContainsAny(source, `/\`)
}

type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }
