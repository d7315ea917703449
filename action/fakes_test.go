package action

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"net/http"
)

// fakeRequest is a synchronous, in-memory action.RequestPort implementation
// used across this package's tests. Grounded on fetch/fetcher_test.go's use
// of testify mocks for port substitution, simplified here to a hand-rolled
// fake since RequestPort's surface is small and entirely synchronous once the
// body is buffered.
type fakeRequest struct {
	body          []byte
	headers       http.Header
	contentLength int64
	bucket, key   string
	query         map[string]string

	outHeaders http.Header
	status     int
	respBody   []byte
	resumed    bool
}

func newFakeRequest(body []byte) *fakeRequest {
	return &fakeRequest{
		body:          body,
		headers:       make(http.Header),
		contentLength: int64(len(body)),
		outHeaders:    make(http.Header),
	}
}

// withMD5 stamps the Content-Md5 header that matches the configured body,
// for tests exercising the happy integrity-check path.
func (f *fakeRequest) withMD5() *fakeRequest {
	sum := md5.Sum(f.body)
	f.headers.Set("Content-Md5", base64.StdEncoding.EncodeToString(sum[:]))
	return f
}

func (f *fakeRequest) ContentLength() int64     { return f.contentLength }
func (f *fakeRequest) HasFullBody() bool        { return true }
func (f *fakeRequest) FullBodyAsBytes() []byte  { return f.body }
func (f *fakeRequest) SubscribeBody(onChunk func([]byte, bool)) {
	onChunk(f.body, true)
}
func (f *fakeRequest) Header(name string) string { return f.headers.Get(name) }
func (f *fakeRequest) SetOutHeader(name, value string) {
	f.outHeaders.Set(name, value)
}
func (f *fakeRequest) SendResponse(status int, body []byte) {
	f.status = status
	f.respBody = body
}
func (f *fakeRequest) Resume()            { f.resumed = true }
func (f *fakeRequest) RequestID() string  { return "test-request-id" }
func (f *fakeRequest) ResourceURI() string {
	if f.key == "" {
		return "/" + f.bucket
	}
	return "/" + f.bucket + "/" + f.key
}
func (f *fakeRequest) Bucket() string { return f.bucket }
func (f *fakeRequest) Key() string    { return f.key }
func (f *fakeRequest) Query(name string) string { return f.query[name] }

// fakeKV is an in-memory KVReaderPort/KVWriterPort over a single hash-like
// index, grounded on store.KVIndex's Redis-hash model.
type fakeKV struct {
	data        map[string]map[string][]byte
	missingIdx  string
	failNext    bool
	lastState   OpState
	lastEntries map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]map[string][]byte), lastState: OpIdle}
}

func (k *fakeKV) Get(ctx context.Context, index string, keys []string, onSuccess func(), onFailure func(err error)) {
	if index == k.missingIdx {
		k.lastState = OpMissing
		onFailure(errMissing)
		return
	}
	bucket := k.data[index]
	entries := make(map[string][]byte, len(keys))
	for _, key := range keys {
		entries[key] = bucket[key]
	}
	k.lastEntries = entries
	k.lastState = OpSuccess
	onSuccess()
}

func (k *fakeKV) State() OpState              { return k.lastState }
func (k *fakeKV) Entries() map[string][]byte  { return k.lastEntries }

func (k *fakeKV) Put(ctx context.Context, index, key string, value []byte, onSuccess func(), onFailure func(err error)) {
	if k.failNext {
		onFailure(errMissing)
		return
	}
	if k.data[index] == nil {
		k.data[index] = make(map[string][]byte)
	}
	k.data[index][key] = value
	onSuccess()
}

func (k *fakeKV) Delete(ctx context.Context, index string, keys []string, onSuccess func(), onFailure func(err error)) {
	for _, key := range keys {
		delete(k.data[index], key)
	}
	onSuccess()
}

// fakeObjectWriter is an in-memory ObjectWriterPort.
type fakeObjectWriter struct {
	failOIDs map[string]bool
	lastCodes []int
}

func (o *fakeObjectWriter) DeleteObjects(ctx context.Context, oids []string, onSuccess func(), onFailure func(err error)) {
	codes := make([]int, len(oids))
	for i, oid := range oids {
		if o.failOIDs[oid] {
			codes[i] = 1
		} else {
			codes[i] = 0
		}
	}
	o.lastCodes = codes
	onSuccess()
}

func (o *fakeObjectWriter) OpReturnCode(i int) int {
	if i < 0 || i >= len(o.lastCodes) {
		return 1
	}
	return o.lastCodes[i]
}

func (o *fakeObjectWriter) State() OpState { return OpSuccess }

// fakeMetadata is an in-memory MetadataRecordPort for bucket existence checks.
type fakeMetadata struct {
	missing bool
	state   OpState
}

func (m *fakeMetadata) Load(ctx context.Context, onSuccess func(), onFailure func(err error)) {
	if m.missing {
		m.state = OpMissing
		onFailure(errMissing)
		return
	}
	m.state = OpSuccess
	onSuccess()
}

func (m *fakeMetadata) FromJSON(data []byte) error { return nil }
func (m *fakeMetadata) ObjectName() string         { return "" }
func (m *fakeMetadata) OID() string                { return "" }
func (m *fakeMetadata) State() OpState              { return m.state }
func (m *fakeMetadata) MarkInvalid()                { m.state = OpFailed }

var errMissing = fakeErr("not found")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
