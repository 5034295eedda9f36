package httpclient

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// MultipartBody is a multipart/form-data request body. Parts are written in
// slice order: fields first, then files.
type MultipartBody struct {
	Fields []FormField
	Files  []FileField
}

// FormField is a plain key/value form part.
type FormField struct {
	Name  string
	Value string
}

// FileField is a file part.
type FileField struct {
	FieldName string
	FileName  string
	// ContentType defaults to application/octet-stream.
	ContentType string
	Data        []byte
}

// AddField appends a form field and returns the body for chaining.
func (m *MultipartBody) AddField(name, value string) *MultipartBody {
	m.Fields = append(m.Fields, FormField{Name: name, Value: value})
	return m
}

// AddFile appends a file part and returns the body for chaining.
func (m *MultipartBody) AddFile(fieldName, fileName, contentType string, data []byte) *MultipartBody {
	m.Files = append(m.Files, FileField{FieldName: fieldName, FileName: fileName, ContentType: contentType, Data: data})
	return m
}

func (m *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(f.FileName)+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
