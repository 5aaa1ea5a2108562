package http

import (
	"strings"
	"time"
)

// Response is a captured HTTP response. It is not modified after Do returns.
type Response struct {
	StatusCode int
	Status     string
	Reason     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// OK reports whether the status code is below 400.
func (r *Response) OK() bool {
	return r.StatusCode >= 100 && r.StatusCode < 400
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
