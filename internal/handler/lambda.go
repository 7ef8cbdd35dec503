package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dmorgan81/imagestudio/internal/log"
)

// FunctionURL serves an http.Handler behind a Lambda function URL.
type FunctionURL struct {
	Handler http.Handler
}

type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *responseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (f *FunctionURL) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("lambda")
	log.Debug("handling function url invocation", "method", event.RequestContext.HTTP.Method, "path", event.RawPath)

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return events.LambdaFunctionURLResponse{}, err
		}
		body = decoded
	}

	target := event.RawPath
	if target == "" {
		target = "/"
	}
	if event.RawQueryString != "" {
		target += "?" + event.RawQueryString
	}

	req, err := http.NewRequestWithContext(ctx, event.RequestContext.HTTP.Method, target, bytes.NewReader(body))
	if err != nil {
		return events.LambdaFunctionURLResponse{}, err
	}
	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	if len(event.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}
	req.Host = req.Header.Get("Host")
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP
	req.RequestURI = target

	resp := &responseBuffer{header: http.Header{}}
	f.Handler.ServeHTTP(resp, req)
	if resp.status == 0 {
		resp.status = http.StatusOK
	}

	out := events.LambdaFunctionURLResponse{
		StatusCode: resp.status,
		Headers:    map[string]string{},
	}
	for k, v := range resp.header {
		if http.CanonicalHeaderKey(k) == "Set-Cookie" {
			out.Cookies = append(out.Cookies, v...)
			continue
		}
		out.Headers[k] = strings.Join(v, ", ")
	}
	if textual(resp.header.Get("Content-Type")) {
		out.Body = resp.body.String()
	} else {
		out.Body = base64.StdEncoding.EncodeToString(resp.body.Bytes())
		out.IsBase64Encoded = true
	}
	return out, nil
}

func textual(contentType string) bool {
	return contentType == "" ||
		strings.HasPrefix(contentType, "text/") ||
		strings.Contains(contentType, "json") ||
		strings.Contains(contentType, "xml")
}
