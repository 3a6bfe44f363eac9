package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dario.cat/mergo"
)

// Status sets the status code and derives the standard status text.
func Status(code int) Transformer {
	return func(r *Response) *Response {
		r.StatusCode = code
		r.Status = http.StatusText(code)
		return r
	}
}

// StatusText overrides the status text without touching the code.
func StatusText(text string) Transformer {
	return func(r *Response) *Response {
		r.Status = text
		return r
	}
}

// Header sets a response header, replacing any prior value for the key.
func Header(key, value string) Transformer {
	return func(r *Response) *Response {
		r.Header.Set(key, value)
		return r
	}
}

// DeleteHeader removes a response header.
func DeleteHeader(key string) Transformer {
	return func(r *Response) *Response {
		r.Header.Del(key)
		return r
	}
}

// Cookie sets a response cookie, replacing any prior cookie of the same
// name.
func Cookie(c *http.Cookie) Transformer {
	return func(r *Response) *Response {
		for i, existing := range r.Cookies {
			if existing.Name == c.Name {
				dup := *c
				r.Cookies[i] = &dup
				return r
			}
		}
		dup := *c
		r.Cookies = append(r.Cookies, &dup)
		return r
	}
}

// Body replaces the response body outright.
func Body(body []byte) Transformer {
	return func(r *Response) *Response {
		r.Body = append([]byte(nil), body...)
		return r
	}
}

// Text replaces the body with a plain-text payload.
func Text(body string) Transformer {
	return func(r *Response) *Response {
		r.Body = []byte(body)
		r.Header.Set("Content-Type", "text/plain")
		return r
	}
}

// JSON replaces the body with the JSON encoding of v. It panics when v
// cannot be marshaled; transformers are declared by setup code, where
// that is a programmer error.
func JSON(v any) Transformer {
	b := mustMarshal(v)
	return func(r *Response) *Response {
		r.Body = append([]byte(nil), b...)
		r.Header.Set("Content-Type", "application/json")
		return r
	}
}

// MergeJSON deep-merges v into the existing JSON body: object keys merge
// recursively, arrays and scalars overwrite. A missing or non-object
// existing body behaves like JSON(v).
func MergeJSON(v any) Transformer {
	src := jsonObject(mustMarshal(v))
	return func(r *Response) *Response {
		r.Header.Set("Content-Type", "application/json")

		var dst map[string]any
		if len(r.Body) > 0 {
			if err := json.Unmarshal(r.Body, &dst); err != nil {
				dst = nil
			}
		}
		if dst == nil || src == nil {
			r.Body = mustMarshal(v)
			return r
		}

		if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
			r.Body = mustMarshal(v)
			return r
		}
		r.Body = mustMarshal(dst)
		return r
	}
}

// Delay sets the minimum wait before delivery. Last one wins; delays do
// not accumulate.
func Delay(d time.Duration) Transformer {
	return func(r *Response) *Response {
		r.Delay = d
		return r
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("response: marshal JSON body: %v", err))
	}
	return b
}

func jsonObject(b []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
