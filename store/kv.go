package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"s3gw/action"
)

// KVIndex is a Redis-hash-backed implementation of action.KVReaderPort and
// action.KVWriterPort for one bucket's object index: the index name is a
// Redis hash key, keys are hash fields, values are the raw stored bytes.
// Grounded on flyingrobots-go-redis-work-queue's
// internal/producer/producer.go for idiomatic context-scoped go-redis calls.
//
// Windows within one delete-multi action are processed serially (spec §5),
// so it is safe for one KVIndex instance to hold the last call's result
// rather than return a fresh per-call result object.
type KVIndex struct {
	client *redis.Client

	lastState   action.OpState
	lastEntries map[string][]byte
}

func NewKVIndex(client *redis.Client) *KVIndex {
	return &KVIndex{client: client, lastState: action.OpIdle}
}

func (k *KVIndex) Get(ctx context.Context, index string, keys []string, onSuccess func(), onFailure func(err error)) {
	k.lastState = action.OpInFlight

	values, err := k.client.HMGet(ctx, index, keys...).Result()
	if err != nil {
		k.lastState = action.OpFailed
		onFailure(fmt.Errorf("kv get on index %q: %w", index, err))
		return
	}

	entries := make(map[string][]byte, len(keys))
	anyPresent := false
	for i, key := range keys {
		if values[i] == nil {
			entries[key] = nil
			continue
		}
		anyPresent = true
		s, _ := values[i].(string)
		entries[key] = []byte(s)
	}
	k.lastEntries = entries

	if !anyPresent {
		k.lastState = action.OpMissing
		onFailure(fmt.Errorf("kv get on index %q: no requested keys present", index))
		return
	}

	k.lastState = action.OpSuccess
	onSuccess()
}

func (k *KVIndex) State() action.OpState          { return k.lastState }
func (k *KVIndex) Entries() map[string][]byte     { return k.lastEntries }

func (k *KVIndex) Put(ctx context.Context, index, key string, value []byte, onSuccess func(), onFailure func(err error)) {
	k.lastState = action.OpInFlight
	if err := k.client.HSet(ctx, index, key, value).Err(); err != nil {
		k.lastState = action.OpFailed
		onFailure(fmt.Errorf("kv put on index %q: %w", index, err))
		return
	}
	k.lastState = action.OpSuccess
	onSuccess()
}

func (k *KVIndex) Delete(ctx context.Context, index string, keys []string, onSuccess func(), onFailure func(err error)) {
	k.lastState = action.OpInFlight
	if err := k.client.HDel(ctx, index, keys...).Err(); err != nil {
		k.lastState = action.OpFailed
		onFailure(fmt.Errorf("kv delete on index %q: %w", index, err))
		return
	}
	k.lastState = action.OpSuccess
	onSuccess()
}

// ObjectMetadata decodes a per-object metadata record (the delete-multi
// reader's value bytes) into the fields the action core needs: the backing
// OID to delete. It never hits the network itself; Load is a trivial
// success since the bytes are already in hand by the time it's used.
type ObjectMetadata struct {
	state action.OpState
	oid   string
	name  string
}

func NewObjectMetadata() *ObjectMetadata {
	return &ObjectMetadata{state: action.OpIdle}
}

type objectMetadataJSON struct {
	OID        string `json:"oid"`
	ObjectName string `json:"object_name"`
}

func (m *ObjectMetadata) FromJSON(data []byte) error {
	var rec objectMetadataJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		m.state = action.OpFailed
		return fmt.Errorf("decode object metadata: %w", err)
	}
	m.oid = rec.OID
	m.name = rec.ObjectName
	m.state = action.OpSuccess
	return nil
}

func (m *ObjectMetadata) Load(ctx context.Context, onSuccess func(), onFailure func(err error)) {
	onSuccess()
}

func (m *ObjectMetadata) ObjectName() string    { return m.name }
func (m *ObjectMetadata) OID() string           { return m.oid }
func (m *ObjectMetadata) State() action.OpState { return m.state }
func (m *ObjectMetadata) MarkInvalid()          { m.state = action.OpFailed }

// BucketMetadata implements action.MetadataRecordPort's bucket-existence
// check: each bucket is a field in a single well-known Redis hash
// (Config.BucketsIndex), whose value is the bucket's own object-index name.
type BucketMetadata struct {
	client *redis.Client
	index  string // buckets index name
	bucket string

	state     action.OpState
	indexName string
}

func NewBucketMetadata(client *redis.Client, bucketsIndex, bucket string) *BucketMetadata {
	return &BucketMetadata{client: client, index: bucketsIndex, bucket: bucket, state: action.OpIdle}
}

func (b *BucketMetadata) Load(ctx context.Context, onSuccess func(), onFailure func(err error)) {
	b.state = action.OpInFlight
	value, err := b.client.HGet(ctx, b.index, b.bucket).Result()
	if err == redis.Nil {
		b.state = action.OpMissing
		onFailure(fmt.Errorf("bucket %q not found", b.bucket))
		return
	}
	if err != nil {
		b.state = action.OpFailed
		onFailure(fmt.Errorf("load bucket %q: %w", b.bucket, err))
		return
	}
	b.indexName = value
	b.state = action.OpSuccess
	onSuccess()
}

// IndexName returns the bucket's own object-index name, populated after a
// successful Load; falls back to the bucket name when unset (e.g. in tests
// that construct a BucketMetadata without calling Load).
func (b *BucketMetadata) IndexName() string {
	if b.indexName == "" {
		return b.bucket
	}
	return b.indexName
}

func (b *BucketMetadata) FromJSON(data []byte) error { return json.Unmarshal(data, &b.indexName) }
func (b *BucketMetadata) ObjectName() string         { return b.bucket }
func (b *BucketMetadata) OID() string                { return "" }
func (b *BucketMetadata) State() action.OpState      { return b.state }
func (b *BucketMetadata) MarkInvalid()               { b.state = action.OpFailed }
