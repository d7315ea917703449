package action

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeObjectMetaRecord decodes the same {"oid": "..."} shape store.ObjectMetadata
// uses, kept local to this test file to avoid an action->store import cycle.
type fakeObjectMetaRecord struct {
	oid   string
	state OpState
}

func newFakeObjectMetaRecord() MetadataRecordPort { return &fakeObjectMetaRecord{state: OpIdle} }

func (r *fakeObjectMetaRecord) Load(ctx context.Context, onSuccess func(), onFailure func(err error)) {
	onSuccess()
}
func (r *fakeObjectMetaRecord) FromJSON(data []byte) error {
	var rec struct {
		OID string `json:"oid"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		r.state = OpFailed
		return err
	}
	r.oid = rec.OID
	r.state = OpSuccess
	return nil
}
func (r *fakeObjectMetaRecord) ObjectName() string { return "" }
func (r *fakeObjectMetaRecord) OID() string        { return r.oid }
func (r *fakeObjectMetaRecord) State() OpState     { return r.state }
func (r *fakeObjectMetaRecord) MarkInvalid()       { r.state = OpFailed }

func deleteXML(keys ...string) []byte {
	body := `<?xml version="1.0" encoding="UTF-8"?><Delete>`
	for _, k := range keys {
		body += "<Object><Key>" + k + "</Key></Object>"
	}
	body += "</Delete>"
	return []byte(body)
}

func TestDeleteMultipleObjectsAction_HappyPath(t *testing.T) {
	body := deleteXML("a", "b", "c")
	req := newFakeRequest(body).withMD5()
	req.bucket = "my-bucket"

	kv := newFakeKV()
	kv.data["my-bucket"] = map[string][]byte{
		"a": mustJSON(t, map[string]string{"oid": "oid-a"}),
		// "b" intentionally absent: already-deleted key, treated as success.
		"c": mustJSON(t, map[string]string{"oid": "oid-c"}),
	}
	obj := &fakeObjectWriter{failOIDs: map[string]bool{}}
	bucketMeta := &fakeMetadata{}
	cfg := DefaultConfig()

	a := NewDeleteMultipleObjectsAction(context.Background(), req, "my-bucket", bucketMeta, kv, kv, obj, newFakeObjectMetaRecord, *cfg, nil)
	a.Start()

	assert.True(t, req.resumed)
	assert.Equal(t, 200, req.status)
	assert.Equal(t, 3, len(a.entries))
	for _, e := range a.entries {
		assert.True(t, e.success, "key %q should report success", e.key)
	}
	assert.NotContains(t, kv.data["my-bucket"], "a")
	assert.NotContains(t, kv.data["my-bucket"], "c")
}

func TestDeleteMultipleObjectsAction_CorruptBody(t *testing.T) {
	body := deleteXML("a")
	req := newFakeRequest(body) // no Content-Md5 header set
	kv := newFakeKV()
	obj := &fakeObjectWriter{}
	bucketMeta := &fakeMetadata{}

	a := NewDeleteMultipleObjectsAction(context.Background(), req, "my-bucket", bucketMeta, kv, kv, obj, newFakeObjectMetaRecord, *DefaultConfig(), nil)
	a.Start()

	assert.Equal(t, 400, req.status)
	assert.Contains(t, string(req.respBody), "BadDigest")
}

func TestDeleteMultipleObjectsAction_TooManyKeys(t *testing.T) {
	keys := make([]string, 2)
	for i := range keys {
		keys[i] = "k"
	}
	body := deleteXML(keys...)
	req := newFakeRequest(body).withMD5()
	kv := newFakeKV()
	obj := &fakeObjectWriter{}
	bucketMeta := &fakeMetadata{}
	cfg := Config{IndexFetchCount: 100, MaxDeleteKeys: 1}

	a := NewDeleteMultipleObjectsAction(context.Background(), req, "my-bucket", bucketMeta, kv, kv, obj, newFakeObjectMetaRecord, cfg, nil)
	a.Start()

	assert.Equal(t, 400, req.status)
	assert.Contains(t, string(req.respBody), "MaxMessageLengthExceeded")
}

func TestDeleteMultipleObjectsAction_BucketMissing(t *testing.T) {
	body := deleteXML("a")
	req := newFakeRequest(body).withMD5()
	kv := newFakeKV()
	obj := &fakeObjectWriter{}
	bucketMeta := &fakeMetadata{missing: true}

	a := NewDeleteMultipleObjectsAction(context.Background(), req, "my-bucket", bucketMeta, kv, kv, obj, newFakeObjectMetaRecord, *DefaultConfig(), nil)
	a.Start()

	assert.Equal(t, 404, req.status)
	assert.Contains(t, string(req.respBody), "NoSuchBucket")
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	assert.NoError(t, err)
	return data
}
