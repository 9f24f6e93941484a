package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/genhoi/unit/internal/h1"
)

// toHTTPRequest converts a fully parsed h1.Request into a *http.Request so
// it can be handed to a chi.Router — the "upper layer" boundary spec.md
// describes as "hand the parsed request to an upper layer and await its
// response buffer chain".
func toHTTPRequest(req *h1.Request) (*http.Request, error) {
	httpReq, err := http.NewRequest(req.Method, req.RequestTarget, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("server: convert request: %w", err)
	}
	httpReq.Proto = req.Version
	if req.Version == "HTTP/1.1" {
		httpReq.ProtoMajor, httpReq.ProtoMinor = 1, 1
	} else {
		httpReq.ProtoMajor, httpReq.ProtoMinor = 1, 0
	}
	httpReq.Host = req.Host
	if req.HasContentLength {
		httpReq.ContentLength = req.ContentLength
	}
	for _, f := range req.RawFields {
		httpReq.Header.Add(f.Name, f.Value)
	}
	if req.Cookie != "" {
		httpReq.Header.Set("Cookie", req.Cookie)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	return httpReq, nil
}
