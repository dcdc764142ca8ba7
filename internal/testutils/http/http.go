// Package http builds requests for handler tests and runs them through an
// echo instance.
package http

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

type RequestOption func(req *http.Request) *http.Request

func WithHeader(key string, value string, values ...string) RequestOption {
	return func(req *http.Request) *http.Request {
		req.Header.Add(key, value)
		for _, v := range values {
			req.Header.Add(key, v)
		}
		return req
	}
}

// = WithHeader("Content-Type", ctyp)
func ContentType(ctyp string) RequestOption {
	return WithHeader("Content-Type", ctyp)
}

func WithCookie(cookie *http.Cookie) RequestOption {
	return func(req *http.Request) *http.Request {
		if cookie != nil {
			req.AddCookie(cookie)
		}
		return req
	}
}

// Serve runs a request through the whole echo stack, routing and
// middleware included.
func Serve(e *echo.Echo, method, target string, body io.Reader, reqopts ...RequestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for _, opt := range reqopts {
		req = opt(req)
	}
	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, req)
	return resp
}

func Get(e *echo.Echo, target string, reqopts ...RequestOption) *httptest.ResponseRecorder {
	return Serve(e, http.MethodGet, target, nil, reqopts...)
}

// PostForm submits url-encoded form values
func PostForm(e *echo.Echo, target string, values url.Values, reqopts ...RequestOption) *httptest.ResponseRecorder {
	opts := append([]RequestOption{ContentType(echo.MIMEApplicationForm)}, reqopts...)
	return Serve(e, http.MethodPost, target, strings.NewReader(values.Encode()), opts...)
}

// File is one file part of a multipart form
type File struct {
	Field    string
	Filename string
	Content  []byte
}

// PostMultipart submits values and files as multipart/form-data
func PostMultipart(e *echo.Echo, target string, values url.Values, files []File, reqopts ...RequestOption) *httptest.ResponseRecorder {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for key, vs := range values {
		for _, v := range vs {
			w.WriteField(key, v)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			panic(err)
		}
		part.Write(f.Content)
	}
	w.Close()

	opts := append([]RequestOption{ContentType(w.FormDataContentType())}, reqopts...)
	return Serve(e, http.MethodPost, target, body, opts...)
}
