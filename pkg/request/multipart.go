package request

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is an uploaded file extracted from a multipart body.
type File struct {
	// Name is the client-supplied filename.
	Name string

	// ContentType is the declared media type of the part.
	ContentType string

	// Data is the raw file content.
	Data []byte
}

// MultipartBody is the best-effort parsed form of a multipart request.
type MultipartBody struct {
	// Fields maps plain form field names to their first value.
	Fields map[string]string

	// Files maps file field names to their first uploaded file.
	Files map[string]File
}

// Multipart decodes the body as multipart/form-data. The second return
// value is false when the request is not multipart or the body is
// malformed.
func (r *Request) Multipart() (*MultipartBody, bool) {
	ct := r.Header.Get("Content-Type")
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil || !strings.HasPrefix(mt, "multipart/") {
		return nil, false
	}
	boundary := params["boundary"]
	if boundary == "" || len(r.Body) == 0 {
		return nil, false
	}

	mr := multipart.NewReader(bytes.NewReader(r.Body), boundary)
	body := &MultipartBody{
		Fields: map[string]string{},
		Files:  map[string]File{},
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false
		}

		data, err := io.ReadAll(part)
		closeErr := part.Close()
		if err != nil || closeErr != nil {
			return nil, false
		}

		name := part.FormName()
		if name == "" {
			continue
		}
		if filename := part.FileName(); filename != "" {
			if _, exists := body.Files[name]; !exists {
				body.Files[name] = File{
					Name:        filename,
					ContentType: part.Header.Get("Content-Type"),
					Data:        data,
				}
			}
			continue
		}
		if _, exists := body.Fields[name]; !exists {
			body.Fields[name] = string(data)
		}
	}

	return body, true
}

// NewMultipart assembles a multipart/form-data body from plain fields and
// files, returning the encoded body and the Content-Type header value.
// Intended for tests and interception shims that need to synthesize
// upload requests.
func NewMultipart(fields map[string]string, files map[string]File) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for name, f := range files {
		var (
			fw  io.Writer
			err error
		)
		if f.ContentType != "" {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", `form-data; name="`+name+`"; filename="`+f.Name+`"`)
			h.Set("Content-Type", f.ContentType)
			fw, err = w.CreatePart(h)
		} else {
			fw, err = w.CreateFormFile(name, f.Name)
		}
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
