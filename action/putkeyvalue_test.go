package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutKeyValueAction_Success(t *testing.T) {
	req := newFakeRequest([]byte(`{"a":1}`))
	kv := newFakeKV()

	a := NewPutKeyValueAction(context.Background(), req, "my-index", "my-key", kv, nil)
	a.Start()

	assert.True(t, req.resumed)
	assert.Equal(t, 200, req.status)
	assert.Equal(t, []byte(`{"a":1}`), kv.data["my-index"]["my-key"])
}

func TestPutKeyValueAction_InvalidJSON(t *testing.T) {
	req := newFakeRequest([]byte(`not json`))
	kv := newFakeKV()

	a := NewPutKeyValueAction(context.Background(), req, "my-index", "my-key", kv, nil)
	a.Start()

	assert.True(t, req.resumed)
	assert.Equal(t, 400, req.status)
	assert.Contains(t, string(req.respBody), "MalformedRequest")
	assert.Nil(t, kv.data["my-index"])
}

func TestPutKeyValueAction_BackendFailure(t *testing.T) {
	req := newFakeRequest([]byte(`{}`))
	kv := newFakeKV()
	kv.failNext = true

	a := NewPutKeyValueAction(context.Background(), req, "my-index", "my-key", kv, nil)
	a.Start()

	assert.Equal(t, 500, req.status)
	assert.Contains(t, string(req.respBody), "InternalError")
}
