package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type KeyValue struct {
	Key   string
	Value string
}

// MultipartField is one formdata part. File parts read Path relative to
// the request's BaseDir.
type MultipartField struct {
	Name  string
	Value string
	Path  string
	File  bool
}

type Request struct {
	Method      string
	URL         string
	Headers     []KeyValue
	QueryParams []KeyValue
	Body        string
	Form        []KeyValue
	Multipart   []MultipartField
	BaseDir     string
	Timeout     time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: method,
		URL:    requestURL,
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	for i, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			r.Headers[i].Value = value
			return r
		}
	}
	r.Headers = append(r.Headers, KeyValue{Key: key, Value: value})
	return r
}

func (r *Request) Header(key string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) AddQueryParam(key, value string) *Request {
	r.QueryParams = append(r.QueryParams, KeyValue{Key: key, Value: value})
	return r
}

// BuildURL applies the query parameters, replacing any of the same name
// already in the URL.
func (r *Request) BuildURL() string {
	if len(r.QueryParams) == 0 {
		return r.URL
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}

	q := u.Query()
	for _, kv := range r.QueryParams {
		q.Del(kv.Key)
	}
	for _, kv := range r.QueryParams {
		q.Add(kv.Key, kv.Value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// FileContentType is the part content type used for an uploaded file.
func FileContentType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "text/csv"
	}
	return "image/jpeg"
}

// BuildMultipartBody creates a multipart form data body from multipart fields
func BuildMultipartBody(fields []MultipartField, baseDir string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		if !field.File {
			if err := writer.WriteField(field.Name, field.Value); err != nil {
				return nil, "", err
			}
			continue
		}

		filePath := field.Path
		if !filepath.IsAbs(filePath) && baseDir != "" {
			filePath = filepath.Join(baseDir, filePath)
		}
		if err := validatePathWithinBase(filePath, baseDir); err != nil {
			return nil, "", err
		}

		if err := writeFilePart(writer, field.Name, filePath); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, name, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(name), escapeQuotes(filepath.Base(filePath))))
	h.Set("Content-Type", FileContentType(filePath))

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// validatePathWithinBase checks that the resolved path stays within the base directory
// to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
