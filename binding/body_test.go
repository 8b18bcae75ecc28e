// Copyright 2025 The Velox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package binding

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velox-web/velox/httperror"
)

func postRequest(t *testing.T, contentType, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req
}

func TestParseBodyJSON(t *testing.T) {
	t.Parallel()

	req := postRequest(t, "application/json", `{"name":"alice","age":30}`)

	fields, files, err := ParseBody(req, DefaultLimits())
	require.NoError(t, err)

	assert.Nil(t, files)
	assert.Equal(t, "alice", fields["name"])
	assert.Equal(t, float64(30), fields["age"])
}

func TestParseBodyJSONWithCharset(t *testing.T) {
	t.Parallel()

	req := postRequest(t, "application/json; charset=utf-8", `{"ok":true}`)

	fields, _, err := ParseBody(req, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, true, fields["ok"])
}

func TestParseBodyEmpty(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", nil)

	fields, files, err := ParseBody(req, DefaultLimits())
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.Nil(t, files)
}

func TestParseBodyMalformedJSON(t *testing.T) {
	t.Parallel()

	req := postRequest(t, "application/json", `{"broken`)

	_, _, err := ParseBody(req, DefaultLimits())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.StatusOf(err, 0))
}

func TestParseBodyNonObjectJSON(t *testing.T) {
	t.Parallel()

	req := postRequest(t, "application/json", `[1,2,3]`)

	_, _, err := ParseBody(req, DefaultLimits())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.StatusOf(err, 0))
}

func TestParseBodyUnknownContentTypeFallsBackToJSON(t *testing.T) {
	t.Parallel()

	req := postRequest(t, "text/plain", `{"still":"json"}`)

	fields, _, err := ParseBody(req, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, "json", fields["still"])
}

func TestParseBodyForm(t *testing.T) {
	t.Parallel()

	req := postRequest(t, "application/x-www-form-urlencoded",
		"name=bob+smith&tag=a&tag=b")

	fields, files, err := ParseBody(req, DefaultLimits())
	require.NoError(t, err)

	assert.Nil(t, files)
	assert.Equal(t, "bob smith", fields["name"])
	assert.Equal(t, []string{"a", "b"}, fields["tag"])
}

func TestParseBodyFormMalformed(t *testing.T) {
	t.Parallel()

	req := postRequest(t, "application/x-www-form-urlencoded", "a=%zz")

	_, _, err := ParseBody(req, DefaultLimits())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.StatusOf(err, 0))
}

func TestParseBodyHardCap(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 64)
	req := postRequest(t, "application/json", `{"data":"`+big+`"}`)

	_, _, err := ParseBody(req, Limits{Body: 16, File: 16, Multipart: 16})
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestParseBodyMultipart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "notes"))

	fw, err := w.CreateFormFile("attachment", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("file contents"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	fields, files, err := ParseBody(req, DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, "notes", fields["title"])
	require.Len(t, files, 1)
	assert.Equal(t, "attachment", files[0].FieldName)
	assert.Equal(t, "notes.txt", files[0].Name)
	assert.Equal(t, []byte("file contents"), files[0].Content)
	assert.Equal(t, int64(len("file contents")), files[0].Size)
}

func TestParseBodyMultipartMissingBoundary(t *testing.T) {
	t.Parallel()

	req := postRequest(t, "multipart/form-data", "irrelevant")

	_, _, err := ParseBody(req, DefaultLimits())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.StatusOf(err, 0))
}

func TestParseBodyMultipartFileOverPerFileCap(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("upload", "big.bin")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("a"), 128))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, _, err = ParseBody(req, Limits{Body: 1 << 20, File: 64, Multipart: 1 << 20})
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, httperror.StatusOf(err, 0))

	details := httperror.DetailsOf(err)
	require.NotNil(t, details)
	assert.Equal(t, "upload", details["field"])
	assert.Equal(t, "big.bin", details["filename"])
	assert.Equal(t, int64(64), details["maxBytes"])
}

func TestParseBodyMultipartOverCumulativeCap(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range []string{"a.bin", "b.bin", "c.bin"} {
		fw, err := w.CreateFormFile("upload", name)
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte("x"), 256))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, _, err := ParseBody(req, Limits{Body: 1 << 20, File: 1 << 20, Multipart: 512})
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestParseBodyMultipartCapExceededInFinalChunk(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("upload", "tail.bin")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), 64))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// The whole payload, closing boundary included, arrives in a single
	// read. A cap one byte short of the payload must still fail: the
	// overflow cannot ride in with the terminal boundary.
	limit := int64(buf.Len() - 1)

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, _, err = ParseBody(req, Limits{Body: 1 << 20, File: 1 << 20, Multipart: limit})
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestParseBodyMultipartRepeatedFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("tag", "one"))
	require.NoError(t, w.WriteField("tag", "two"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	fields, _, err := ParseBody(req, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, fields["tag"])
}
