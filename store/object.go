package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"s3gw/action"
)

// ObjectStore implements action.ObjectWriterPort and action.ObjectStorePort
// against a Motr-compatible, S3-speaking object tier, via
// aws-sdk-go-v2/service/s3. Grounded on backend/manager.go's client
// construction and replicator/put_operations.go's header mapping.
type ObjectStore struct {
	client *s3.Client
	bucket string

	lastState action.OpState
	lastCodes []int
}

func NewObjectStore(client *s3.Client, bucket string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, lastState: action.OpIdle}
}

// DeleteObjects issues one batch delete call for the given OIDs. Spec §4.1:
// op_return_code(i) is 0 for success, NotFoundCode for "not found treated as
// success", anything else for failure.
func (o *ObjectStore) DeleteObjects(ctx context.Context, oids []string, onSuccess func(), onFailure func(err error)) {
	o.lastState = action.OpInFlight

	objs := make([]types.ObjectIdentifier, len(oids))
	for i, oid := range oids {
		objs[i] = types.ObjectIdentifier{Key: aws.String(oid)}
	}

	out, err := o.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(o.bucket),
		Delete: &types.Delete{Objects: objs},
	})
	if err != nil {
		o.lastState = action.OpFailed
		onFailure(fmt.Errorf("delete_objects: %w", err))
		return
	}

	deleted := make(map[string]bool, len(out.Deleted))
	for _, d := range out.Deleted {
		deleted[aws.ToString(d.Key)] = true
	}
	failed := make(map[string]string, len(out.Errors))
	for _, e := range out.Errors {
		failed[aws.ToString(e.Key)] = aws.ToString(e.Code)
	}

	codes := make([]int, len(oids))
	for i, oid := range oids {
		switch {
		case deleted[oid]:
			codes[i] = 0
		case failed[oid] == "NoSuchKey":
			codes[i] = action.NotFoundCode
		default:
			codes[i] = 1
		}
	}
	o.lastCodes = codes
	o.lastState = action.OpSuccess
	onSuccess()
}

func (o *ObjectStore) OpReturnCode(i int) int {
	if i < 0 || i >= len(o.lastCodes) {
		return 1
	}
	return o.lastCodes[i]
}

func (o *ObjectStore) State() action.OpState { return o.lastState }

func (o *ObjectStore) PutObject(ctx context.Context, bucket, key string, body []byte, headers map[string]string, onSuccess func(etag string), onFailure func(err error)) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if ct, ok := headers["Content-Type"]; ok {
		input.ContentType = aws.String(ct)
	}
	if ce, ok := headers["Content-Encoding"]; ok {
		input.ContentEncoding = aws.String(ce)
	}

	out, err := o.client.PutObject(ctx, input)
	if err != nil {
		onFailure(fmt.Errorf("put_object %s/%s: %w", bucket, key, err))
		return
	}
	onSuccess(aws.ToString(out.ETag))
}

func (o *ObjectStore) GetObject(ctx context.Context, bucket, key string, onSuccess func(body []byte, headers map[string]string), onFailure func(err error)) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		onFailure(fmt.Errorf("get_object %s/%s: %w", bucket, key, err))
		return
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		onFailure(fmt.Errorf("read object body %s/%s: %w", bucket, key, err))
		return
	}

	headers := make(map[string]string)
	if out.ContentType != nil {
		headers["Content-Type"] = *out.ContentType
	}
	if out.ETag != nil {
		headers["ETag"] = *out.ETag
	}
	onSuccess(data, headers)
}

func (o *ObjectStore) HeadObject(ctx context.Context, bucket, key string, onSuccess func(headers map[string]string), onFailure func(err error)) {
	out, err := o.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		onFailure(fmt.Errorf("head_object %s/%s: %w", bucket, key, err))
		return
	}
	headers := make(map[string]string)
	if out.ContentType != nil {
		headers["Content-Type"] = *out.ContentType
	}
	if out.ContentLength != nil {
		headers["Content-Length"] = strconv.FormatInt(*out.ContentLength, 10)
	}
	onSuccess(headers)
}

func (o *ObjectStore) HeadBucket(ctx context.Context, bucket string, onSuccess func(), onFailure func(err error)) {
	_, err := o.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		onFailure(fmt.Errorf("head_bucket %s: %w", bucket, err))
		return
	}
	onSuccess()
}

func (o *ObjectStore) ListObjectsV2(ctx context.Context, bucket, prefix string, onSuccess func(keys []string), onFailure func(err error)) {
	out, err := o.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket), Prefix: aws.String(prefix)})
	if err != nil {
		onFailure(fmt.Errorf("list_objects_v2 %s: %w", bucket, err))
		return
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	onSuccess(keys)
}

func (o *ObjectStore) ListBuckets(ctx context.Context, onSuccess func(buckets []string), onFailure func(err error)) {
	out, err := o.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		onFailure(fmt.Errorf("list_buckets: %w", err))
		return
	}
	buckets := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		buckets = append(buckets, aws.ToString(b.Name))
	}
	onSuccess(buckets)
}

// CreateMultipartUpload, UploadPart, CompleteMultipartUpload and
// AbortMultipartUpload implement action.MultipartPort. Grounded on
// replicator/multipart_operations.go's three-phase upload sequence, now
// issued against the single backing object tier instead of fanned out to
// several replicas.

func (o *ObjectStore) CreateMultipartUpload(ctx context.Context, bucket, key string, onSuccess func(uploadID string), onFailure func(err error)) {
	out, err := o.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		onFailure(fmt.Errorf("create_multipart_upload %s/%s: %w", bucket, key, err))
		return
	}
	onSuccess(aws.ToString(out.UploadId))
}

func (o *ObjectStore) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body []byte, onSuccess func(etag string), onFailure func(err error)) {
	out, err := o.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
		Body:       bytes.NewReader(body),
	})
	if err != nil {
		onFailure(fmt.Errorf("upload_part %s/%s part=%d: %w", bucket, key, partNumber, err))
		return
	}
	onSuccess(aws.ToString(out.ETag))
}

func (o *ObjectStore) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []action.CompletedPart, onSuccess func(etag string), onFailure func(err error)) {
	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{PartNumber: aws.Int32(p.PartNumber), ETag: aws.String(p.ETag)}
	}
	out, err := o.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		onFailure(fmt.Errorf("complete_multipart_upload %s/%s: %w", bucket, key, err))
		return
	}
	onSuccess(aws.ToString(out.ETag))
}

func (o *ObjectStore) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string, onSuccess func(), onFailure func(err error)) {
	_, err := o.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		onFailure(fmt.Errorf("abort_multipart_upload %s/%s: %w", bucket, key, err))
		return
	}
	onSuccess()
}
