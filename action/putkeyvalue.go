package action

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"time"

	"s3gw/logger"
)

// PutKeyValueResult is put-key-value's success payload: a minimal XML ack
// naming the index and key written, since the verb's own request body (the
// JSON value) carries no response data beyond confirming the write.
// original_source/server/motr_put_key_value_action.h sends a bare success
// status with no payload body; this port adds the small ack document.
type PutKeyValueResult struct {
	XMLName xml.Name `xml:"PutKeyValueResult"`
	Index   string   `xml:"Index"`
	Key     string   `xml:"Key"`
}

// PutKeyValueAction implements spec §4.4.2:
// consume_incoming_content → read_and_validate_key_value → put_key_value →
// send_response. Unlike delete-multi, this verb has no bucket-load step; it
// operates directly against an index_id, matching
// motr_put_key_value_action.h's direct use of motr_kv_writer with no bucket
// metadata dependency.
type PutKeyValueAction struct {
	Action

	ctx context.Context

	kvWriter KVWriterPort
	index    string
	key      string

	jsonValue []byte
	metrics   *Metrics
}

// NewPutKeyValueAction constructs the action and enqueues its task list.
func NewPutKeyValueAction(
	ctx context.Context,
	req RequestPort,
	index string,
	key string,
	kvWriter KVWriterPort,
	metrics *Metrics,
) *PutKeyValueAction {
	a := &PutKeyValueAction{
		ctx:      ctx,
		kvWriter: kvWriter,
		index:    index,
		key:      key,
		metrics:  metrics,
	}
	a.Request = req

	a.Enqueue(a.consumeIncomingContent)
	a.Enqueue(a.readAndValidateKeyValue)
	a.Enqueue(a.putKeyValue)
	return a
}

// consumeIncomingContent buffers the body if not yet fully received,
// otherwise proceeds in-line. Spec §4.3.
func (a *PutKeyValueAction) consumeIncomingContent() {
	if a.Request.HasFullBody() {
		a.jsonValue = a.Request.FullBodyAsBytes()
		a.Next()
		return
	}

	a.Request.SubscribeBody(func(buffered []byte, complete bool) {
		if !complete {
			return
		}
		a.jsonValue = buffered
		a.Next()
	})
}

// readAndValidateKeyValue checks the accumulated body is syntactically valid
// JSON. Spec §4.4.2.
func (a *PutKeyValueAction) readAndValidateKeyValue() {
	if !json.Valid(a.jsonValue) {
		a.InvalidRequest = true
		a.JumpTo(a.sendResponse)
		return
	}
	a.Next()
}

// putKeyValue issues the KV put against index_id with the path-derived key
// and the raw JSON buffer, verbatim. Spec §4.4.2.
func (a *PutKeyValueAction) putKeyValue() {
	a.kvWriter.Put(a.ctx, a.index, a.key, a.jsonValue,
		func() { a.JumpTo(a.sendResponse) },
		func(err error) {
			logger.Error("put-key-value: put_key_value failed: %v", err)
			a.BackendFailed = true
			a.JumpTo(a.sendResponse)
		},
	)
}

// sendResponse is the terminal step, spec §4.5.
func (a *PutKeyValueAction) sendResponse() {
	start := time.Now()
	a.SendResult(PutKeyValueResult{Index: a.index, Key: a.key})

	if a.metrics != nil {
		outcome := "success"
		if a.InvalidRequest || a.BackendFailed {
			outcome = "error"
		}
		a.metrics.ActionsTotal.WithLabelValues("PutKeyValue", outcome).Inc()
		a.metrics.ActionDuration.WithLabelValues("PutKeyValue").Observe(time.Since(start).Seconds())
	}
}
