package action

import (
	"context"
	"encoding/xml"

	"s3gw/logger"
)

// This file supplements the two spec-mandated verbs with the teacher's
// pre-existing S3 surface (PutObject, GetObject, HeadObject, DeleteObject,
// HeadBucket, ListObjectsV2, ListBuckets), each expressed as the same
// validate → fetch_bucket_info → do_work → send_response skeleton used by
// DeleteMultipleObjectsAction, per SPEC_FULL.md's Supplemented section.
// Grounded on replicator/put_operations.go, replicator/delete_operations.go,
// and fetch/fetcher.go for per-verb backend-call shape. Each backend call is
// issued once: these actions do not retry, and store.Manager does not retry
// either (it only health-checks the tiers).

// --- PutObject ---

type PutObjectResult struct {
	XMLName xml.Name `xml:"PutObjectResult"`
	ETag    string   `xml:"ETag"`
}

type PutObjectAction struct {
	Action
	ctx     context.Context
	store   ObjectStorePort
	bucket  string
	key     string
	headers map[string]string
	body    []byte
	etag    string
	metrics *Metrics
}

func NewPutObjectAction(ctx context.Context, req RequestPort, bucketMeta MetadataRecordPort, store ObjectStorePort, bucket, key string, headers map[string]string, metrics *Metrics) *PutObjectAction {
	a := &PutObjectAction{ctx: ctx, store: store, bucket: bucket, key: key, headers: headers, metrics: metrics}
	a.Request = req
	a.BucketMeta = bucketMeta

	a.Enqueue(a.consumeBody)
	a.Enqueue(a.fetchBucketInfo)
	a.Enqueue(a.putObject)
	return a
}

func (a *PutObjectAction) consumeBody() {
	if a.Request.HasFullBody() {
		a.body = a.Request.FullBodyAsBytes()
		a.Next()
		return
	}
	a.Request.SubscribeBody(func(buffered []byte, complete bool) {
		if !complete {
			return
		}
		a.body = buffered
		a.Next()
	})
}

func (a *PutObjectAction) fetchBucketInfo() {
	a.BucketMeta.Load(a.ctx, func() { a.Next() }, func(err error) {
		logger.Error("put-object: fetch_bucket_info failed: %v", err)
		a.JumpTo(a.sendResponse)
	})
}

func (a *PutObjectAction) putObject() {
	a.store.PutObject(a.ctx, a.bucket, a.key, a.body, a.headers,
		func(etag string) {
			a.etag = etag
			a.JumpTo(a.sendResponse)
		},
		func(err error) {
			logger.Error("put-object: put_object failed: %v", err)
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

func (a *PutObjectAction) sendResponse() {
	a.SendResult(PutObjectResult{ETag: a.etag})
	a.recordOutcome(a.metrics, "PutObject")
}

// --- GetObject ---

type GetObjectAction struct {
	Action
	ctx         context.Context
	store       ObjectStorePort
	bucket, key string
	body        []byte
	headers     map[string]string
	metrics     *Metrics
}

func NewGetObjectAction(ctx context.Context, req RequestPort, bucketMeta MetadataRecordPort, store ObjectStorePort, bucket, key string, metrics *Metrics) *GetObjectAction {
	a := &GetObjectAction{ctx: ctx, store: store, bucket: bucket, key: key, metrics: metrics}
	a.Request = req
	a.BucketMeta = bucketMeta

	a.Enqueue(a.fetchBucketInfo)
	a.Enqueue(a.getObject)
	return a
}

func (a *GetObjectAction) fetchBucketInfo() {
	a.BucketMeta.Load(a.ctx, func() { a.Next() }, func(err error) {
		logger.Error("get-object: fetch_bucket_info failed: %v", err)
		a.JumpTo(a.sendResponse)
	})
}

func (a *GetObjectAction) getObject() {
	a.store.GetObject(a.ctx, a.bucket, a.key,
		func(body []byte, headers map[string]string) {
			a.body = body
			a.headers = headers
			a.JumpTo(a.sendResponse)
		},
		func(err error) {
			logger.Error("get-object: get_object failed: %v", err)
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

func (a *GetObjectAction) sendResponse() {
	if !a.terminate() {
		return
	}
	kind, ok := a.resolveOutcome()
	if !ok {
		a.writeXML(kind.status, ErrorDocument{Code: kind.code, Message: kind.message, RequestID: a.Request.RequestID(), Resource: a.Request.ResourceURI()})
		a.recordOutcome(a.metrics, "GetObject")
		return
	}
	for name, value := range a.headers {
		a.Request.SetOutHeader(name, value)
	}
	a.Request.SendResponse(200, a.body)
	a.Request.Resume()
	a.recordOutcome(a.metrics, "GetObject")
}

// --- HeadObject ---

type HeadObjectAction struct {
	Action
	ctx         context.Context
	store       ObjectStorePort
	bucket, key string
	headers     map[string]string
	metrics     *Metrics
}

func NewHeadObjectAction(ctx context.Context, req RequestPort, bucketMeta MetadataRecordPort, store ObjectStorePort, bucket, key string, metrics *Metrics) *HeadObjectAction {
	a := &HeadObjectAction{ctx: ctx, store: store, bucket: bucket, key: key, metrics: metrics}
	a.Request = req
	a.BucketMeta = bucketMeta

	a.Enqueue(a.fetchBucketInfo)
	a.Enqueue(a.headObject)
	return a
}

func (a *HeadObjectAction) fetchBucketInfo() {
	a.BucketMeta.Load(a.ctx, func() { a.Next() }, func(err error) {
		a.JumpTo(a.sendResponse)
	})
}

func (a *HeadObjectAction) headObject() {
	a.store.HeadObject(a.ctx, a.bucket, a.key,
		func(headers map[string]string) {
			a.headers = headers
			a.JumpTo(a.sendResponse)
		},
		func(err error) {
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

func (a *HeadObjectAction) sendResponse() {
	if !a.terminate() {
		return
	}
	kind, ok := a.resolveOutcome()
	if !ok {
		a.Request.SendResponse(kind.status, nil)
		a.Request.Resume()
		a.recordOutcome(a.metrics, "HeadObject")
		return
	}
	for name, value := range a.headers {
		a.Request.SetOutHeader(name, value)
	}
	a.Request.SendResponse(200, nil)
	a.Request.Resume()
	a.recordOutcome(a.metrics, "HeadObject")
}

// --- DeleteObject ---

type DeleteObjectAction struct {
	Action
	ctx         context.Context
	kvWriter    KVWriterPort
	objWriter   ObjectStorePort
	index       string
	bucket, key string
	oid         string
	meta        MetadataRecordPort
	metrics     *Metrics
}

func NewDeleteObjectAction(ctx context.Context, req RequestPort, bucketMeta, objMeta MetadataRecordPort, kvWriter KVWriterPort, objWriter ObjectStorePort, index, bucket, key string, metrics *Metrics) *DeleteObjectAction {
	a := &DeleteObjectAction{ctx: ctx, kvWriter: kvWriter, objWriter: objWriter, index: index, bucket: bucket, key: key, meta: objMeta, metrics: metrics}
	a.Request = req
	a.BucketMeta = bucketMeta

	a.Enqueue(a.fetchBucketInfo)
	a.Enqueue(a.deleteObject)
	return a
}

func (a *DeleteObjectAction) fetchBucketInfo() {
	a.BucketMeta.Load(a.ctx, func() { a.Next() }, func(err error) {
		a.JumpTo(a.sendResponse)
	})
}

func (a *DeleteObjectAction) deleteObject() {
	a.objWriter.DeleteObjects(a.ctx, []string{a.key},
		func() {
			code := a.objWriter.OpReturnCode(0)
			if code != 0 && code != NotFoundCode {
				a.BackendFailed = true
				a.JumpTo(a.sendResponse)
				return
			}
			a.kvWriter.Delete(a.ctx, a.index, []string{a.key},
				func() { a.JumpTo(a.sendResponse) },
				func(err error) {
					a.BackendFailed = true
					a.JumpTo(a.sendResponse)
				},
			)
		},
		func(err error) {
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

func (a *DeleteObjectAction) sendResponse() {
	if !a.terminate() {
		return
	}
	kind, ok := a.resolveOutcome()
	if !ok {
		a.writeXML(kind.status, ErrorDocument{Code: kind.code, Message: kind.message, RequestID: a.Request.RequestID(), Resource: a.Request.ResourceURI()})
	} else {
		a.Request.SendResponse(204, nil)
		a.Request.Resume()
	}
	a.recordOutcome(a.metrics, "DeleteObject")
}

// --- HeadBucket ---

type HeadBucketAction struct {
	Action
	ctx     context.Context
	metrics *Metrics
}

func NewHeadBucketAction(ctx context.Context, req RequestPort, bucketMeta MetadataRecordPort, metrics *Metrics) *HeadBucketAction {
	a := &HeadBucketAction{ctx: ctx, metrics: metrics}
	a.Request = req
	a.BucketMeta = bucketMeta
	a.Enqueue(a.fetchBucketInfo)
	return a
}

func (a *HeadBucketAction) fetchBucketInfo() {
	a.BucketMeta.Load(a.ctx, func() { a.JumpTo(a.sendResponse) }, func(err error) { a.JumpTo(a.sendResponse) })
}

func (a *HeadBucketAction) sendResponse() {
	if !a.terminate() {
		return
	}
	kind, ok := a.resolveOutcome()
	status := 200
	if !ok {
		status = kind.status
	}
	a.Request.SendResponse(status, nil)
	a.Request.Resume()
	a.recordOutcome(a.metrics, "HeadBucket")
}

// --- ListObjectsV2 / ListBuckets ---

type ListBucketResult struct {
	XMLName xml.Name `xml:"ListBucketResult"`
	Name    string   `xml:"Name"`
	Prefix  string   `xml:"Prefix"`
	Contents []struct {
		Key string `xml:"Key"`
	} `xml:"Contents"`
}

type ListObjectsV2Action struct {
	Action
	ctx     context.Context
	store   ObjectStorePort
	bucket  string
	prefix  string
	keys    []string
	metrics *Metrics
}

func NewListObjectsV2Action(ctx context.Context, req RequestPort, bucketMeta MetadataRecordPort, store ObjectStorePort, bucket, prefix string, metrics *Metrics) *ListObjectsV2Action {
	a := &ListObjectsV2Action{ctx: ctx, store: store, bucket: bucket, prefix: prefix, metrics: metrics}
	a.Request = req
	a.BucketMeta = bucketMeta
	a.Enqueue(a.fetchBucketInfo)
	a.Enqueue(a.listObjects)
	return a
}

func (a *ListObjectsV2Action) fetchBucketInfo() {
	a.BucketMeta.Load(a.ctx, func() { a.Next() }, func(err error) { a.JumpTo(a.sendResponse) })
}

func (a *ListObjectsV2Action) listObjects() {
	a.store.ListObjectsV2(a.ctx, a.bucket, a.prefix,
		func(keys []string) {
			a.keys = keys
			a.JumpTo(a.sendResponse)
		},
		func(err error) {
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

func (a *ListObjectsV2Action) sendResponse() {
	result := ListBucketResult{Name: a.bucket, Prefix: a.prefix}
	for _, k := range a.keys {
		result.Contents = append(result.Contents, struct {
			Key string `xml:"Key"`
		}{Key: k})
	}
	a.SendResult(result)
	a.recordOutcome(a.metrics, "ListObjectsV2")
}

type ListAllMyBucketsResult struct {
	XMLName xml.Name `xml:"ListAllMyBucketsResult"`
	Buckets struct {
		Bucket []struct {
			Name string `xml:"Name"`
		} `xml:"Bucket"`
	} `xml:"Buckets"`
}

type ListBucketsAction struct {
	Action
	ctx     context.Context
	store   ObjectStorePort
	buckets []string
	metrics *Metrics
}

func NewListBucketsAction(ctx context.Context, req RequestPort, store ObjectStorePort, metrics *Metrics) *ListBucketsAction {
	a := &ListBucketsAction{ctx: ctx, store: store, metrics: metrics}
	a.Request = req
	a.Enqueue(a.listBuckets)
	return a
}

func (a *ListBucketsAction) listBuckets() {
	a.store.ListBuckets(a.ctx,
		func(buckets []string) {
			a.buckets = buckets
			a.JumpTo(a.sendResponse)
		},
		func(err error) {
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

func (a *ListBucketsAction) sendResponse() {
	result := ListAllMyBucketsResult{}
	for _, b := range a.buckets {
		result.Buckets.Bucket = append(result.Buckets.Bucket, struct {
			Name string `xml:"Name"`
		}{Name: b})
	}
	a.SendResult(result)
	a.recordOutcome(a.metrics, "ListBuckets")
}

// recordOutcome increments a verb's outcome counter once its terminal step
// has run. Shared by every supplemented verb in this file.
func (a *Action) recordOutcome(m *Metrics, verb string) {
	if m == nil {
		return
	}
	outcome := "success"
	if a.ContentCorrupt || a.TooLarge || a.InvalidRequest || a.BackendFailed ||
		(a.BucketMeta != nil && a.BucketMeta.State() == OpMissing) {
		outcome = "error"
	}
	m.ActionsTotal.WithLabelValues(verb, outcome).Inc()
}
