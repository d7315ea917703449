package action

import "context"

// OpState is the post-completion state of a backend client handle.
// Spec §3: idle, in_flight, success, failed, missing.
type OpState int

const (
	OpIdle OpState = iota
	OpInFlight
	OpSuccess
	OpFailed
	OpMissing
)

func (s OpState) String() string {
	switch s {
	case OpIdle:
		return "idle"
	case OpInFlight:
		return "in_flight"
	case OpSuccess:
		return "success"
	case OpFailed:
		return "failed"
	case OpMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// RequestPort is the capability set an Action consumes from the HTTP front door.
// Concrete implementation wraps apigw.S3Request/S3Response; see routing/requestadapter.go.
type RequestPort interface {
	ContentLength() int64
	HasFullBody() bool
	FullBodyAsBytes() []byte
	// SubscribeBody registers onChunk to be invoked as body bytes arrive. Each
	// invocation receives the bytes accumulated so far and whether the body is
	// now complete. If the body is already fully buffered, onChunk fires once,
	// synchronously, with complete=true.
	SubscribeBody(onChunk func(buffered []byte, complete bool))
	Header(name string) string
	SetOutHeader(name, value string)
	SendResponse(status int, body []byte)
	Resume()
	RequestID() string
	ResourceURI() string
	Bucket() string
	Key() string
	Query(name string) string
}

// KVReaderPort reads entries from a named index. Spec §4.1.
type KVReaderPort interface {
	Get(ctx context.Context, index string, keys []string, onSuccess func(), onFailure func(err error))
	State() OpState
	// Entries maps each requested key to its stored value. A key present in the
	// map with an empty value means "key missing" (spec §4.1).
	Entries() map[string][]byte
}

// KVWriterPort mutates a named index. Spec §4.1.
type KVWriterPort interface {
	Put(ctx context.Context, index, key string, value []byte, onSuccess func(), onFailure func(err error))
	Delete(ctx context.Context, index string, keys []string, onSuccess func(), onFailure func(err error))
	State() OpState
}

// ObjectWriterPort deletes (and, for the supplemented verbs, writes/reads)
// objects in the backing object tier. Spec §4.1.
type ObjectWriterPort interface {
	DeleteObjects(ctx context.Context, oids []string, onSuccess func(), onFailure func(err error))
	// OpReturnCode returns the i-th sub-operation's return code: 0 means
	// success, a backend-specific not-found sentinel also counts as success,
	// anything else is failure.
	OpReturnCode(i int) int
	State() OpState
}

// NotFoundCode is the sentinel op-return-code treated as success per spec §4.4.1.
const NotFoundCode = -1

// ObjectStorePort extends ObjectWriterPort with the single-object read/write
// operations the supplemented verbs (PutObject, GetObject, HeadObject) need.
// Spec §4.1 only fully specifies the batch delete path; this extension is
// SPEC_FULL.md's supplemented-feature surface, grounded the same way.
type ObjectStorePort interface {
	ObjectWriterPort
	PutObject(ctx context.Context, bucket, key string, body []byte, headers map[string]string, onSuccess func(etag string), onFailure func(err error))
	GetObject(ctx context.Context, bucket, key string, onSuccess func(body []byte, headers map[string]string), onFailure func(err error))
	HeadObject(ctx context.Context, bucket, key string, onSuccess func(headers map[string]string), onFailure func(err error))
	HeadBucket(ctx context.Context, bucket string, onSuccess func(), onFailure func(err error))
	ListObjectsV2(ctx context.Context, bucket, prefix string, onSuccess func(keys []string), onFailure func(err error))
	ListBuckets(ctx context.Context, onSuccess func(buckets []string), onFailure func(err error))
}

// CompletedPart identifies one previously-uploaded part by number and ETag,
// used to finalize a multipart upload.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// MultipartPort is the object tier's multipart-upload capability, used by
// the supplemented CreateMultipartUpload/UploadPart/CompleteMultipartUpload/
// AbortMultipartUpload verbs.
type MultipartPort interface {
	CreateMultipartUpload(ctx context.Context, bucket, key string, onSuccess func(uploadID string), onFailure func(err error))
	UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body []byte, onSuccess func(etag string), onFailure func(err error))
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart, onSuccess func(etag string), onFailure func(err error))
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string, onSuccess func(), onFailure func(err error))
}

// MetadataRecordPort loads and decodes a bucket's (or object's) metadata
// record. Spec §4.1.
type MetadataRecordPort interface {
	Load(ctx context.Context, onSuccess func(), onFailure func(err error))
	FromJSON(data []byte) error
	ObjectName() string
	OID() string
	State() OpState
	MarkInvalid()
}
