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

package acquire

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocal(t *testing.T) {
	dir := t.TempDir()
	data := []byte("not really a font")
	err := os.WriteFile(filepath.Join(dir, "test.TTF"), data, 0o644)
	if err != nil {
		t.Fatal(err)
	}

	l := &Loader{Dir: dir}
	res, err := l.Load(context.Background(), "test.TTF")
	if err != nil {
		t.Fatal(err)
	}
	want := &Result{
		Data: data,
		Path: filepath.Join(dir, "test.TTF"),
		Ext:  ".ttf",
		Size: int64(len(data)),
	}
	if d := cmp.Diff(want, res); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	// absolute paths ignore Dir
	l2 := &Loader{Dir: "/does/not/exist"}
	res, err = l2.Load(context.Background(), want.Path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != want.Path {
		t.Errorf("got path %q, want %q", res.Path, want.Path)
	}
}

func TestLocalErrors(t *testing.T) {
	dir := t.TempDir()
	l := &Loader{Dir: dir}

	_, err := l.Load(context.Background(), "missing.ttf")
	var acqErr *Error
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if acqErr.Source != "missing.ttf" {
		t.Errorf("wrong source %q", acqErr.Source)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error does not unwrap to fs.ErrNotExist: %v", err)
	}

	if err := os.Mkdir(filepath.Join(dir, "sub.ttf"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err = l.Load(context.Background(), "sub.ttf")
	if !errors.As(err, &acqErr) {
		t.Errorf("expected *Error for a directory, got %v", err)
	}

	_, err = l.Load(context.Background(), "")
	if !errors.As(err, &acqErr) {
		t.Errorf("expected *Error for an empty source, got %v", err)
	}
}

func TestHTTP(t *testing.T) {
	data := []byte("font data")
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fonts/Test.woff2" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})

	for _, newServer := range []func(http.Handler) *httptest.Server{
		httptest.NewServer,
		httptest.NewTLSServer, // self-signed certificate
	} {
		srv := newServer(handler)

		l := &Loader{}
		src := srv.URL + "/fonts/Test.woff2?v=1"
		res, err := l.Load(context.Background(), src)
		if err != nil {
			srv.Close()
			t.Fatal(err)
		}
		want := &Result{Data: data, Path: src, Ext: ".woff2"}
		if d := cmp.Diff(want, res); d != "" {
			t.Errorf("(-want +got):\n%s", d)
		}

		_, err = l.Load(context.Background(), srv.URL+"/missing.ttf")
		var acqErr *Error
		if !errors.As(err, &acqErr) {
			t.Errorf("expected *Error, got %v", err)
		}

		srv.Close()
	}
}

func TestCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := &Loader{}
	_, err := l.Load(ctx, srv.URL+"/a.ttf")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNames(t *testing.T) {
	type testCase struct {
		source   string
		isURL    bool
		ext      string
		baseName string
	}
	cases := []testCase{
		{"font.ttf", false, ".ttf", "font"},
		{"./fonts/Go-Regular.TTF", false, ".ttf", "Go-Regular"},
		{"a.b.woff2", false, ".woff2", "a.b"},
		{"noext", false, "", "noext"},
		{"https://example.com/x/Icons.svg?x=1#y", true, ".svg", "Icons"},
		{"HTTP://example.com/y.otf", true, ".otf", "y"},
		{"https://example.com/", true, "", "font"},
	}
	for _, c := range cases {
		if got := IsURL(c.source); got != c.isURL {
			t.Errorf("IsURL(%q) = %t", c.source, got)
		}
		if got := Ext(c.source); got != c.ext {
			t.Errorf("Ext(%q) = %q, want %q", c.source, got, c.ext)
		}
		if got := BaseName(c.source); got != c.baseName {
			t.Errorf("BaseName(%q) = %q, want %q", c.source, got, c.baseName)
		}
	}
}
