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
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/velox-web/velox/httperror"
)

// countingReader tracks the bytes drawn from the underlying stream so the
// cumulative multipart cap is enforced as chunks arrive, before they are
// buffered anywhere.
type countingReader struct {
	r     io.Reader
	limit int64
	total int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if cr.total+int64(n) > cr.limit {
		// Withhold the overflow bytes: delivering them alongside the
		// error would let a parser that finds what it needs in the
		// delivered chunk complete without ever seeing the error.
		n = int(cr.limit - cr.total)
		if n < 0 {
			n = 0
		}
		cr.total = cr.limit

		return n, ErrUploadTooLarge
	}
	cr.total += int64(n)

	return n, err
}

// parseMultipart walks the multipart stream part by part, collecting field
// values and fully-buffered files.
//
// The cumulative cap is incremental: the moment the stream passes it, the
// parse fails with [ErrUploadTooLarge] and the dispatcher destroys the
// connection. The per-file cap is checked only after a part has been fully
// buffered — an oversized single file under the cumulative cap still costs
// its full size in memory before the 413 goes out.
func parseMultipart(r *http.Request, boundary string, limits Limits) (map[string]any, []*File, error) {
	if boundary == "" {
		return nil, nil, httperror.BadRequest("multipart body missing boundary")
	}

	reader := multipart.NewReader(&countingReader{r: r.Body, limit: limits.Multipart}, boundary)

	fields := make(map[string]any)
	var files []*File

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, ErrUploadTooLarge) {
				return nil, nil, ErrUploadTooLarge
			}

			return nil, nil, httperror.BadRequest("malformed multipart body").Wrap(err)
		}

		content, err := io.ReadAll(part)
		closeErr := part.Close()
		if err != nil {
			if errors.Is(err, ErrUploadTooLarge) {
				return nil, nil, ErrUploadTooLarge
			}

			return nil, nil, httperror.BadRequest("reading multipart part").Wrap(err)
		}
		if closeErr != nil {
			return nil, nil, httperror.BadRequest("reading multipart part").Wrap(closeErr)
		}

		if part.FileName() == "" {
			mergeField(fields, part.FormName(), string(content))
			continue
		}

		if int64(len(content)) > limits.File {
			return nil, nil, httperror.PayloadTooLarge("uploaded file exceeds size limit").
				WithDetails(map[string]any{
					"field":    part.FormName(),
					"filename": part.FileName(),
					"maxBytes": limits.File,
				})
		}

		files = append(files, &File{
			FieldName:   part.FormName(),
			Name:        part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Size:        int64(len(content)),
			Content:     content,
		})
	}

	return fields, files, nil
}
