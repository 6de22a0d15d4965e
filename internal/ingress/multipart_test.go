package ingress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/scratch"
	"github.com/fhuszti/skillswap-media-ms/internal/sentinel"
)

type filePart struct {
	field, name, mime string
	body              []byte
}

type textPart struct {
	field, value string
}

func buildRequest(t *testing.T, files []filePart, texts []textPart) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, tp := range texts {
		if err := w.WriteField(tp.field, tp.value); err != nil {
			t.Fatal(err)
		}
	}
	for _, fp := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fp.field, fp.name))
		if fp.mime != "" {
			h.Set("Content-Type", fp.mime)
		}
		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := pw.Write(fp.body); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func avatarProfile() *model.UploadProfile {
	return &model.UploadProfile{
		Name:        "user-avatar",
		AllowedMime: []string{"image/jpeg", "image/png"},
		MaxBytes:    16,
		MaxCount:    1,
		Fields:      map[string]int{"avatar": 1},
	}
}

func postProfile() *model.UploadProfile {
	return &model.UploadProfile{
		Name:        "post-images",
		AllowedMime: []string{"image/jpeg", "image/png"},
		MaxBytes:    16,
		MaxCount:    3,
		Fields:      map[string]int{"images": 3},
	}
}

func setup(t *testing.T) (*Ingestor, *scratch.Store, *sentinel.Sentinel) {
	t.Helper()
	store := scratch.New(filepath.Join(t.TempDir(), "uploads"))
	if err := store.EnsureRoot(); err != nil {
		t.Fatal(err)
	}
	return New(store), store, sentinel.New(store)
}

func scratchEntries(t *testing.T, store *scratch.Store) int {
	t.Helper()
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestIngest_SingleFile(t *testing.T) {
	ing, store, sen := setup(t)
	req := buildRequest(t, []filePart{{"avatar", "me.png", "image/png", []byte("pngbytes")}}, nil)

	res, err := ing.Ingest(context.Background(), req, req.ContentLength, avatarProfile(), sen)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("files = %d; want 1", len(res.Files))
	}
	f := res.Files[0]
	if f.Field != "avatar" || f.DeclaredMime != "image/png" || f.DeclaredName != "me.png" {
		t.Errorf("staged file = %+v", f)
	}
	if f.SizeBytes != 8 || f.State != model.StateValidated {
		t.Errorf("size/state = %d/%s", f.SizeBytes, f.State)
	}
	data, err := os.ReadFile(f.TempPath)
	if err != nil || string(data) != "pngbytes" {
		t.Errorf("scratch content = %q, err = %v", data, err)
	}

	sen.ReleaseAll(context.Background())
	if n := scratchEntries(t, store); n != 0 {
		t.Errorf("scratch entries after release = %d", n)
	}
}

func TestIngest_ArrayWithFormValues(t *testing.T) {
	ing, _, sen := setup(t)
	req := buildRequest(t,
		[]filePart{
			{"images", "a.jpg", "image/jpeg", []byte("a")},
			{"images", "b.png", "image/png; charset=binary", []byte("bb")},
		},
		[]textPart{{"content", "look at this"}},
	)

	res, err := ing.Ingest(context.Background(), req, req.ContentLength, postProfile(), sen)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("files = %d; want 2", len(res.Files))
	}
	if res.Files[1].DeclaredMime != "image/png" {
		t.Errorf("MIME parameters not stripped: %q", res.Files[1].DeclaredMime)
	}
	if res.Values["content"] != "look at this" {
		t.Errorf("content = %q", res.Values["content"])
	}
	if acquired, _ := sen.Counts(); acquired != 2 {
		t.Errorf("tracked = %d; want 2", acquired)
	}
	sen.ReleaseAll(context.Background())
}

func TestIngest_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		profile *model.UploadProfile
		files   []filePart
		wantErr error
		check   func(t *testing.T, rej *RejectError)
	}{
		{
			name:    "too large",
			profile: avatarProfile(),
			files:   []filePart{{"avatar", "big.png", "image/png", bytes.Repeat([]byte("x"), 17)}},
			wantErr: ErrTooLarge,
			check: func(t *testing.T, rej *RejectError) {
				if rej.Limit != 16 {
					t.Errorf("limit = %d; want 16", rej.Limit)
				}
			},
		},
		{
			name:    "exactly at limit is fine for the next check",
			profile: avatarProfile(),
			files: []filePart{
				{"avatar", "ok.png", "image/png", bytes.Repeat([]byte("x"), 16)},
				{"avatar", "two.png", "image/png", []byte("x")},
			},
			wantErr: ErrTooManyFiles,
		},
		{
			name:    "too many in array",
			profile: postProfile(),
			files: []filePart{
				{"images", "1.png", "image/png", []byte("1")},
				{"images", "2.png", "image/png", []byte("2")},
				{"images", "3.png", "image/png", []byte("3")},
				{"images", "4.png", "image/png", []byte("4")},
			},
			wantErr: ErrTooManyFiles,
			check: func(t *testing.T, rej *RejectError) {
				if rej.Limit != 3 {
					t.Errorf("limit = %d; want 3", rej.Limit)
				}
			},
		},
		{
			name:    "unexpected field",
			profile: avatarProfile(),
			files:   []filePart{{"banner", "b.png", "image/png", []byte("b")}},
			wantErr: ErrUnexpectedField,
			check: func(t *testing.T, rej *RejectError) {
				if rej.Field != "banner" {
					t.Errorf("field = %q", rej.Field)
				}
			},
		},
		{
			name:    "disallowed mime",
			profile: avatarProfile(),
			files:   []filePart{{"avatar", "doc.pdf", "application/pdf", []byte("%PDF")}},
			wantErr: ErrDisallowedMime,
			check: func(t *testing.T, rej *RejectError) {
				if rej.Mime != "application/pdf" {
					t.Errorf("mime = %q", rej.Mime)
				}
			},
		},
		{
			name:    "missing content type",
			profile: avatarProfile(),
			files:   []filePart{{"avatar", "x", "", []byte("x")}},
			wantErr: ErrDisallowedMime,
		},
		{
			name:    "empty file",
			profile: avatarProfile(),
			files:   []filePart{{"avatar", "empty.png", "image/png", nil}},
			wantErr: ErrMalformed,
		},
		{
			name:    "good file then bad file releases both",
			profile: postProfile(),
			files: []filePart{
				{"images", "1.png", "image/png", []byte("1")},
				{"images", "2.gif", "image/gif", []byte("2")},
			},
			wantErr: ErrDisallowedMime,
		},
		{
			name:    "no file",
			profile: avatarProfile(),
			files:   nil,
			wantErr: ErrNoFile,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ing, store, sen := setup(t)
			req := buildRequest(t, tc.files, nil)

			res, err := ing.Ingest(context.Background(), req, req.ContentLength, tc.profile, sen)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
			if res != nil {
				t.Errorf("expected nil result on rejection")
			}
			var rej *RejectError
			if !errors.As(err, &rej) {
				t.Fatalf("err %T is not a *RejectError", err)
			}
			if tc.check != nil {
				tc.check(t, rej)
			}

			// partials are gone before the caller sees the error
			if n := scratchEntries(t, store); n != 0 {
				t.Errorf("scratch entries after rejection = %d; want 0", n)
			}
			acquired, released := sen.Counts()
			if acquired != released {
				t.Errorf("tracked %d but released %d", acquired, released)
			}
		})
	}
}

func TestIngest_NotMultipart(t *testing.T) {
	ing, _, sen := setup(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"avatar":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	_, err := ing.Ingest(context.Background(), req, req.ContentLength, avatarProfile(), sen)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v; want ErrMalformed", err)
	}
}

func TestIngest_TruncatedBody(t *testing.T) {
	ing, store, sen := setup(t)
	full := buildRequest(t, []filePart{{"avatar", "me.png", "image/png", []byte("pngbytes")}}, nil)
	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(full.Body); err != nil {
		t.Fatal(err)
	}
	// cut inside the file part, before the closing boundary
	cut := bytes.Index(body.Bytes(), []byte("pngbytes")) + 3
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body.Bytes()[:cut]))
	req.Header.Set("Content-Type", full.Header.Get("Content-Type"))

	_, err := ing.Ingest(context.Background(), req, req.ContentLength, avatarProfile(), sen)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v; want ErrMalformed", err)
	}
	if n := scratchEntries(t, store); n != 0 {
		t.Errorf("scratch entries after truncated upload = %d; want 0", n)
	}
}

func TestIngest_DeclaredLengthRejectedUpfront(t *testing.T) {
	ing, store, sen := setup(t)
	req := buildRequest(t, []filePart{{"avatar", "me.png", "image/png", []byte("x")}}, nil)

	_, err := ing.Ingest(context.Background(), req, bodyLimit(avatarProfile())+1, avatarProfile(), sen)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v; want ErrTooLarge", err)
	}
	if acquired, _ := sen.Counts(); acquired != 0 {
		t.Errorf("nothing should be staged, got %d", acquired)
	}
	if n := scratchEntries(t, store); n != 0 {
		t.Errorf("scratch entries = %d", n)
	}
}

func TestIngest_CancelledContext(t *testing.T) {
	ing, _, sen := setup(t)
	req := buildRequest(t, []filePart{{"avatar", "me.png", "image/png", []byte("x")}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ing.Ingest(ctx, req, req.ContentLength, avatarProfile(), sen)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v; want ErrMalformed", err)
	}
}
