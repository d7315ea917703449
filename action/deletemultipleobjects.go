package action

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/xml"
	"time"

	"s3gw/logger"
)

// deleteXMLRequest is the standard S3 Delete XML document. Spec §6.
type deleteXMLRequest struct {
	XMLName xml.Name `xml:"Delete"`
	Quiet   bool     `xml:"Quiet"`
	Objects []struct {
		Key string `xml:"Key"`
	} `xml:"Object"`
}

// DeletedEntry and ErrorEntry are DeleteResult's children, spec §6: "DeleteResult
// with Deleted and Error children in insertion order."
type DeletedEntry struct {
	Key string `xml:"Key"`
}

type DeleteErrorEntry struct {
	Key     string `xml:"Key"`
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

// DeleteResult is delete-multi's success payload.
type DeleteResult struct {
	XMLName xml.Name           `xml:"DeleteResult"`
	Deleted []DeletedEntry     `xml:"Deleted"`
	Errors  []DeleteErrorEntry `xml:"Error"`
}

type deleteOutcome struct {
	key     string
	success bool
	code    string
	message string
}

// DeleteMultipleObjectsAction implements spec §4.4.1:
// validate_request → fetch_bucket_info → fetch_objects_info → delete_objects →
// send_response, with a windowed fan-out across the input key batch grounded
// on original_source/server/s3_delete_multiple_objects_action.cc.
type DeleteMultipleObjectsAction struct {
	Action

	ctx context.Context
	cfg Config

	kvReader  KVReaderPort
	kvWriter  KVWriterPort
	objWriter ObjectWriterPort
	newMeta   func() MetadataRecordPort

	index string // object index name for this bucket

	allKeys      []string
	requestIndex int
	entries      []deleteOutcome

	metrics *Metrics
}

// NewDeleteMultipleObjectsAction constructs the action and enqueues its task
// list. Ports are injected so tests substitute in-memory fakes (spec §4.1).
func NewDeleteMultipleObjectsAction(
	ctx context.Context,
	req RequestPort,
	index string,
	bucketMeta MetadataRecordPort,
	kvReader KVReaderPort,
	kvWriter KVWriterPort,
	objWriter ObjectWriterPort,
	newMeta func() MetadataRecordPort,
	cfg Config,
	metrics *Metrics,
) *DeleteMultipleObjectsAction {
	a := &DeleteMultipleObjectsAction{
		ctx:       ctx,
		cfg:       cfg,
		kvReader:  kvReader,
		kvWriter:  kvWriter,
		objWriter: objWriter,
		newMeta:   newMeta,
		index:     index,
		metrics:   metrics,
	}
	a.Request = req
	a.BucketMeta = bucketMeta

	a.Enqueue(a.validateRequest)
	a.Enqueue(a.fetchBucketInfo)
	a.Enqueue(a.runDeleteLoop)
	return a
}

// validateRequest is spec §4.4.1's first step: MD5 integrity check, then
// parse, then the 1000-key cap.
func (a *DeleteMultipleObjectsAction) validateRequest() {
	if a.Request.ContentLength() == 0 {
		// An empty delete-multi body is meaningless; treated as malformed
		// per spec §8 ("rejected otherwise").
		a.InvalidRequest = true
		a.JumpTo(a.sendResponse)
		return
	}

	if a.Request.HasFullBody() {
		a.validateBody(a.Request.FullBodyAsBytes())
		return
	}

	a.Request.SubscribeBody(func(buffered []byte, complete bool) {
		if !complete {
			return
		}
		a.validateBody(buffered)
	})
}

func (a *DeleteMultipleObjectsAction) validateBody(body []byte) {
	sum := md5.Sum(body)
	computed := base64.StdEncoding.EncodeToString(sum[:])
	header := a.Request.Header("Content-Md5")

	// MD5 header absent while body present is treated as mismatch. Spec §8.
	if header == "" || header != computed {
		a.ContentCorrupt = true
		a.JumpTo(a.sendResponse)
		return
	}

	var parsed deleteXMLRequest
	if err := xml.Unmarshal(body, &parsed); err != nil {
		a.InvalidRequest = true
		a.JumpTo(a.sendResponse)
		return
	}

	if len(parsed.Objects) > a.cfg.MaxDeleteKeys {
		a.TooLarge = true
		a.JumpTo(a.sendResponse)
		return
	}

	keys := make([]string, len(parsed.Objects))
	for i, o := range parsed.Objects {
		keys[i] = o.Key
	}
	a.allKeys = keys
	a.Next()
}

// fetchBucketInfo loads the bucket's metadata record. Spec §4.4.1.
func (a *DeleteMultipleObjectsAction) fetchBucketInfo() {
	a.BucketMeta.Load(a.ctx,
		func() { a.Next() },
		func(err error) {
			logger.Error("delete-multi: fetch_bucket_info failed: %v", err)
			a.JumpTo(a.sendResponse)
		},
	)
}

// runDeleteLoop drives the windowed fetch_objects_info/delete_objects/
// delete_objects_metadata cycle to completion, then jumps to send_response.
// The queue's cursor is monotonic (spec §4.2), so the per-window loop is
// plain Go control flow rather than repeated Next() calls; each window still
// issues exactly the backend calls the spec names, in the spec's order.
func (a *DeleteMultipleObjectsAction) runDeleteLoop() {
	a.requestIndex = 0
	a.fetchNextWindow()
}

func (a *DeleteMultipleObjectsAction) fetchNextWindow() {
	if a.requestIndex >= len(a.allKeys) {
		a.JumpTo(a.sendResponse)
		return
	}

	end := a.requestIndex + a.cfg.IndexFetchCount
	if end > len(a.allKeys) {
		end = len(a.allKeys)
	}
	window := a.allKeys[a.requestIndex:end]
	a.requestIndex = end

	a.kvReader.Get(a.ctx, a.index, window,
		func() { a.deleteObjects(window) },
		func(err error) { a.fetchWindowFailed(window, err) },
	)
}

// fetchWindowFailed handles fetch_objects_info_failed. Spec §4.4.1: a
// missing reader state marks every key in the window as successfully
// deleted (S3 semantics: deleting an absent key is success); any other
// failure state is a terminal InternalError.
func (a *DeleteMultipleObjectsAction) fetchWindowFailed(window []string, err error) {
	if a.kvReader.State() == OpMissing {
		for _, k := range window {
			a.entries = append(a.entries, deleteOutcome{key: k, success: true})
		}
		a.fetchNextWindow()
		return
	}

	logger.Error("delete-multi: fetch_objects_info failed: %v", err)
	a.BackendFailed = true
	a.JumpTo(a.sendResponse)
}

// deleteObjects is spec §4.4.1's delete_objects step: decode metadata for
// non-empty values, record already-absent keys as deleted, then issue the
// object-tier batch delete for the window's live OIDs.
func (a *DeleteMultipleObjectsAction) deleteObjects(window []string) {
	entries := a.kvReader.Entries()

	var oids []string
	var oidKeys []string
	metaByKey := make(map[string]MetadataRecordPort, len(window))

	for _, key := range window {
		value := entries[key]
		if len(value) == 0 {
			a.entries = append(a.entries, deleteOutcome{key: key, success: true})
			continue
		}
		rec := a.newMeta()
		if err := rec.FromJSON(value); err != nil {
			rec.MarkInvalid()
			a.entries = append(a.entries, deleteOutcome{key: key, success: false, code: "InternalError", message: err.Error()})
			continue
		}
		metaByKey[key] = rec
		oids = append(oids, rec.OID())
		oidKeys = append(oidKeys, key)
	}

	if len(oids) == 0 {
		a.fetchNextWindow()
		return
	}

	a.objWriter.DeleteObjects(a.ctx, oids,
		func() { a.deleteObjectsSuccessful(oidKeys, metaByKey) },
		func(err error) {
			logger.Error("delete-multi: delete_objects failed outright: %v", err)
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

// deleteObjectsSuccessful is spec §4.4.1's delete_objects_successful step.
func (a *DeleteMultipleObjectsAction) deleteObjectsSuccessful(oidKeys []string, metaByKey map[string]MetadataRecordPort) {
	for i, key := range oidKeys {
		code := a.objWriter.OpReturnCode(i)
		if code == 0 || code == NotFoundCode {
			a.entries = append(a.entries, deleteOutcome{key: key, success: true})
			continue
		}
		a.entries = append(a.entries, deleteOutcome{key: key, success: false, code: "InternalError", message: "object delete failed"})
		metaByKey[key].MarkInvalid()
	}
	a.deleteObjectsMetadata(oidKeys, metaByKey)
}

// deleteObjectsMetadata is spec §4.4.1's delete_objects_metadata step.
func (a *DeleteMultipleObjectsAction) deleteObjectsMetadata(oidKeys []string, metaByKey map[string]MetadataRecordPort) {
	var toDelete []string
	for _, key := range oidKeys {
		if metaByKey[key].State() != OpFailed {
			toDelete = append(toDelete, key)
		}
	}

	if len(toDelete) == 0 {
		a.fetchNextWindow()
		return
	}

	a.kvWriter.Delete(a.ctx, a.index, toDelete,
		func() { a.fetchNextWindow() },
		func(err error) {
			// Open question per spec §9: orphaned metadata after this
			// failure is left for out-of-band reconciliation; see DESIGN.md.
			logger.Error("delete-multi: delete_objects_metadata failed: %v", err)
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

// sendResponse is the terminal step, spec §4.5.
func (a *DeleteMultipleObjectsAction) sendResponse() {
	start := time.Now()
	result := DeleteResult{}
	for _, e := range a.entries {
		if e.success {
			result.Deleted = append(result.Deleted, DeletedEntry{Key: e.key})
		} else {
			result.Errors = append(result.Errors, DeleteErrorEntry{Key: e.key, Code: e.code, Message: e.message})
		}
	}

	a.SendResult(result)

	if a.metrics != nil {
		outcome := "success"
		if a.Terminated() && (a.ContentCorrupt || a.TooLarge || a.InvalidRequest || a.BackendFailed || (a.BucketMeta != nil && a.BucketMeta.State() == OpMissing)) {
			outcome = "error"
		}
		a.metrics.ActionsTotal.WithLabelValues("DeleteMultipleObjects", outcome).Inc()
		a.metrics.ActionDuration.WithLabelValues("DeleteMultipleObjects").Observe(time.Since(start).Seconds())
		for _, e := range a.entries {
			itemOutcome := "success"
			if !e.success {
				itemOutcome = "error"
			}
			a.metrics.BatchItemsTotal.WithLabelValues("DeleteMultipleObjects", itemOutcome).Inc()
		}
	}
}
