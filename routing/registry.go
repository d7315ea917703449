package routing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"s3gw/action"
	"s3gw/apigw"
	"s3gw/auth"
	"s3gw/logger"
	"s3gw/store"
)

// Engine is the Action Registry / Dispatch (spec §4.6): it authenticates the
// request, wraps it in a requestAdapter, constructs the action.Action that
// matches the operation the API Gateway parsed, starts it, and blocks on the
// adapter until the action's terminal step calls Resume.
//
// Grounded on engine.go's original switch-on-Operation structure, generalized
// from "call replicator/fetcher method" to "construct and start an Action".
type Engine struct {
	auth    auth.Authenticator
	store   *store.Manager
	cfg     action.Config
	metrics *action.Metrics
}

func NewEngine(authenticator auth.Authenticator, storeManager *store.Manager, cfg action.Config, metrics *action.Metrics) *Engine {
	return &Engine{auth: authenticator, store: storeManager, cfg: cfg, metrics: metrics}
}

// Handle implements apigw.RequestHandler.
func (e *Engine) Handle(req *apigw.S3Request) *apigw.S3Response {
	logger.Debug("routing: handling request - Operation: %s, Bucket: %s, Key: %s",
		req.Operation, req.Bucket, req.Key)

	identity, err := e.auth.Authenticate(req)
	if err != nil {
		logger.Debug("routing: authentication failed: %v", err)
		return createAuthErrorResponse(err)
	}
	logger.Debug("routing: authenticated as %s (%s)", identity.DisplayName, identity.AccessKey)

	adapter, err := newRequestAdapter(req)
	if err != nil {
		logger.Error("routing: failed to buffer request body: %v", err)
		return createOperationNotImplementedResponse(req.Operation)
	}

	objStore := e.store.ObjectStore()
	kvIndex := e.store.KVIndex()
	bucketMeta := e.store.BucketMetadata(req.Bucket)
	ctx := req.Context

	var act interface{ Start() }

	switch req.Operation {
	case apigw.PutObject:
		act = action.NewPutObjectAction(ctx, adapter, bucketMeta, objStore, req.Bucket, req.Key, flattenHeaders(req.Headers), e.metrics)
	case apigw.GetObject:
		act = action.NewGetObjectAction(ctx, adapter, bucketMeta, objStore, req.Bucket, req.Key, e.metrics)
	case apigw.HeadObject:
		act = action.NewHeadObjectAction(ctx, adapter, bucketMeta, objStore, req.Bucket, req.Key, e.metrics)
	case apigw.HeadBucket:
		act = action.NewHeadBucketAction(ctx, adapter, bucketMeta, e.metrics)
	case apigw.DeleteObject:
		act = action.NewDeleteObjectAction(ctx, adapter, bucketMeta, store.NewObjectMetadata(), kvIndex, objStore, bucketMeta.IndexName(), req.Bucket, req.Key, e.metrics)
	case apigw.ListObjectsV2:
		act = action.NewListObjectsV2Action(ctx, adapter, bucketMeta, objStore, req.Bucket, req.Query("prefix"), e.metrics)
	case apigw.ListBuckets:
		act = action.NewListBucketsAction(ctx, adapter, objStore, e.metrics)
	case apigw.DeleteMultipleObjects:
		act = action.NewDeleteMultipleObjectsAction(ctx, adapter, bucketMeta.IndexName(), bucketMeta, kvIndex, kvIndex, objStore, func() action.MetadataRecordPort { return store.NewObjectMetadata() }, e.cfg, e.metrics)
	case apigw.PutKeyValue:
		act = action.NewPutKeyValueAction(ctx, adapter, req.Bucket, req.Key, kvIndex, e.metrics)
	case apigw.CreateMultipartUpload:
		act = action.NewCreateMultipartUploadAction(ctx, adapter, bucketMeta, objStore, req.Bucket, req.Key, e.metrics)
	case apigw.UploadPart:
		act = action.NewUploadPartAction(ctx, adapter, bucketMeta, objStore, req.Bucket, req.Key, req.Query("uploadId"), parsePartNumber(req.Query("partNumber")), e.metrics)
	case apigw.CompleteMultipartUpload:
		act = action.NewCompleteMultipartUploadAction(ctx, adapter, bucketMeta, objStore, req.Bucket, req.Key, req.Query("uploadId"), e.metrics)
	case apigw.AbortMultipartUpload:
		act = action.NewAbortMultipartUploadAction(ctx, adapter, objStore, req.Bucket, req.Key, req.Query("uploadId"), e.metrics)
	default:
		logger.Warn("routing: unsupported operation: %s", req.Operation)
		return createOperationNotImplementedResponse(req.Operation)
	}

	act.Start()
	return adapter.response()
}

func parsePartNumber(raw string) int32 {
	n, _ := strconv.ParseInt(raw, 10, 32)
	return int32(n)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name := range h {
		out[name] = h.Get(name)
	}
	return out
}

// createAuthErrorResponse converts an authentication error into the standard
// S3Response shape. Grounded on the original engine.go's equivalent helper.
func createAuthErrorResponse(err error) *apigw.S3Response {
	var code, message string
	var statusCode int

	switch {
	case errors.Is(err, auth.ErrMissingAuthHeader):
		code, message, statusCode = "MissingSecurityHeader", "Your request was missing a required header.", http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidAccessKeyID):
		code, message, statusCode = "InvalidAccessKeyId", "The Access Key Id you provided does not exist in our records.", http.StatusForbidden
	case errors.Is(err, auth.ErrSignatureMismatch):
		code, message, statusCode = "SignatureDoesNotMatch", "The request signature we calculated does not match the signature you provided.", http.StatusForbidden
	case errors.Is(err, auth.ErrRequestExpired):
		code, message, statusCode = "RequestTimeTooSkewed", "The difference between the request time and the current time is too large.", http.StatusForbidden
	default:
		code, message, statusCode = "AccessDenied", "Access Denied", http.StatusForbidden
	}

	return xmlErrorResponse(statusCode, code, message)
}

func createOperationNotImplementedResponse(operation apigw.S3Operation) *apigw.S3Response {
	return xmlErrorResponse(http.StatusNotImplemented, "NotImplemented", fmt.Sprintf("The operation %s is not implemented", operation))
}

func xmlErrorResponse(statusCode int, code, message string) *apigw.S3Response {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Error>
    <Code>%s</Code>
    <Message>%s</Message>
    <RequestId>routing-engine</RequestId>
    <HostId>s3gw</HostId>
</Error>`, code, message)

	headers := make(http.Header)
	headers.Set("Content-Type", "application/xml")
	headers.Set("Content-Length", fmt.Sprintf("%d", len(body)))

	return &apigw.S3Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Headers:    headers,
	}
}
