package routing

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"s3gw/action"
	"s3gw/apigw"
)

// requestAdapter implements action.RequestPort over one apigw.S3Request,
// capturing the terminal response into an apigw.S3Response for the gateway
// to write back to the client.
//
// The body is buffered eagerly in newRequestAdapter rather than streamed
// chunk-by-chunk: HTTP framing is named an out-of-scope external collaborator,
// so SubscribeBody can legitimately fulfill its callback synchronously the
// instant it is registered, once the full body already sits in memory.
type requestAdapter struct {
	req  *apigw.S3Request
	body []byte

	mu         sync.Mutex
	outHeaders http.Header
	resp       *apigw.S3Response
	resumed    bool
	done       chan struct{}
}

func newRequestAdapter(req *apigw.S3Request) (*requestAdapter, error) {
	var body []byte
	if req.Body != nil {
		defer req.Body.Close()
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}
	return &requestAdapter{
		req:        req,
		body:       body,
		outHeaders: make(http.Header),
		done:       make(chan struct{}),
	}, nil
}

func (r *requestAdapter) ContentLength() int64 { return r.req.ContentLength }

func (r *requestAdapter) HasFullBody() bool { return true }

func (r *requestAdapter) FullBodyAsBytes() []byte { return r.body }

func (r *requestAdapter) SubscribeBody(onChunk func(buffered []byte, complete bool)) {
	onChunk(r.body, true)
}

func (r *requestAdapter) Header(name string) string { return r.req.Headers.Get(name) }

func (r *requestAdapter) SetOutHeader(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outHeaders.Set(name, value)
}

func (r *requestAdapter) SendResponse(status int, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rc io.ReadCloser
	if body != nil {
		rc = io.NopCloser(bytes.NewReader(body))
	}
	r.resp = &apigw.S3Response{
		StatusCode: status,
		Headers:    r.outHeaders.Clone(),
		Body:       rc,
	}
}

func (r *requestAdapter) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.resumed {
		r.resumed = true
		close(r.done)
	}
}

func (r *requestAdapter) RequestID() string { return r.req.Headers.Get("X-Amz-Request-Id") }

func (r *requestAdapter) ResourceURI() string {
	if r.req.Key == "" {
		return "/" + r.req.Bucket
	}
	return "/" + r.req.Bucket + "/" + r.req.Key
}

func (r *requestAdapter) Bucket() string { return r.req.Bucket }

func (r *requestAdapter) Key() string { return r.req.Key }

func (r *requestAdapter) Query(name string) string { return r.req.Query.Get(name) }

// response blocks until the wrapped action calls Resume, then returns the
// captured S3Response. Every action path ends in exactly one SendResponse
// followed by Resume, so this never blocks indefinitely in practice.
func (r *requestAdapter) response() *apigw.S3Response {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resp
}

var _ action.RequestPort = (*requestAdapter)(nil)
