package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// Body is a request payload. The variants are mutually exclusive:
// Multipart, URLEncoded, Binary, Text and JSON. A nil Body sends no payload.
type Body interface {
	// encode returns the wire payload and sets the content type on h.
	encode(h http.Header) (io.Reader, error)
}

const headerContentType = "Content-Type"

// FormFile is a file part of a multipart form.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string // defaults to application/octet-stream
	Content     io.Reader
}

// Form is a multipart/form-data payload.
type Form struct {
	fields [][2]string
	files  []FormFile
}

// NewForm creates an empty multipart form.
func NewForm() *Form {
	return &Form{}
}

// AddField appends a plain text field.
func (f *Form) AddField(name, value string) *Form {
	f.fields = append(f.fields, [2]string{name, value})
	return f
}

// AddFile appends a file part.
func (f *Form) AddFile(file FormFile) *Form {
	f.files = append(f.files, file)
	return f
}

// writeTo writes all parts and the closing boundary.
func (f *Form) writeTo(mw *multipart.Writer) error {
	for _, field := range f.fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("writing field %s: %w", field[0], err)
		}
	}

	for _, file := range f.files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.Filename)))
		h.Set(headerContentType, contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("creating part %s: %w", file.Field, err)
		}
		if file.Content != nil {
			if _, err := io.Copy(part, file.Content); err != nil {
				return fmt.Errorf("writing part %s: %w", file.Field, err)
			}
		}
	}

	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type multipartBody struct{ form *Form }

// Multipart sends form as multipart/form-data. Any caller Content-Type is replaced
// by one carrying the generated boundary.
func Multipart(form *Form) Body {
	return multipartBody{form: form}
}

// encode streams the form through a pipe so file contents are never buffered.
// The pipe reader is closed by the HTTP transport, which unblocks the writer on early failure.
func (b multipartBody) encode(h http.Header) (io.Reader, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	h.Del(headerContentType)
	h.Set(headerContentType, mw.FormDataContentType())

	go func() {
		form := b.form
		if form == nil {
			form = NewForm()
		}
		pw.CloseWithError(form.writeTo(mw))
	}()

	return pr, nil
}

type urlEncodedBody struct{ values url.Values }

// URLEncoded sends values as application/x-www-form-urlencoded, unless the caller
// set another Content-Type.
func URLEncoded(values url.Values) Body {
	return urlEncodedBody{values: values}
}

func (b urlEncodedBody) encode(h http.Header) (io.Reader, error) {
	if h.Get(headerContentType) == "" {
		h.Set(headerContentType, "application/x-www-form-urlencoded")
	}
	return strings.NewReader(b.values.Encode()), nil
}

type binaryBody struct {
	r           io.Reader
	contentType string
}

// Binary sends r unchanged. contentType is applied only when the caller set none.
func Binary(r io.Reader, contentType string) Body {
	return binaryBody{r: r, contentType: contentType}
}

func (b binaryBody) encode(h http.Header) (io.Reader, error) {
	if b.contentType != "" && h.Get(headerContentType) == "" {
		h.Set(headerContentType, b.contentType)
	}
	if b.r == nil {
		return bytes.NewReader(nil), nil
	}
	return b.r, nil
}

type textBody string

// Text sends s unchanged as text/plain, unless the caller set another Content-Type.
func Text(s string) Body {
	return textBody(s)
}

func (b textBody) encode(h http.Header) (io.Reader, error) {
	if h.Get(headerContentType) == "" {
		h.Set(headerContentType, "text/plain;charset=UTF-8")
	}
	return strings.NewReader(string(b)), nil
}

type jsonBody struct{ v any }

// JSON serializes v with encoding/json and sends it as application/json, unless the
// caller set another Content-Type.
func JSON(v any) Body {
	return jsonBody{v: v}
}

func (b jsonBody) encode(h http.Header) (io.Reader, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON body: %w", err)
	}
	if h.Get(headerContentType) == "" {
		h.Set(headerContentType, "application/json")
	}
	return bytes.NewReader(data), nil
}

// encodeBody normalizes body into a wire payload, adjusting h. A nil body yields a nil reader.
func encodeBody(body Body, h http.Header) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	return body.encode(h)
}
