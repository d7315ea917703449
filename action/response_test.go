package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestResolveOutcome_PriorityLadder exercises spec §4.4.3/§4.5's fixed
// precedence: content-corrupt beats everything else, bucket-missing beats a
// mere backend failure, and a clean action resolves to success.
func TestResolveOutcome_PriorityLadder(t *testing.T) {
	tests := []struct {
		name string
		a    Action
		want errorKind
		ok   bool
	}{
		{
			name: "content corrupt wins over everything",
			a:    Action{ContentCorrupt: true, TooLarge: true, InvalidRequest: true, BackendFailed: true},
			want: errBadDigest,
		},
		{
			name: "too large beats invalid request",
			a:    Action{TooLarge: true, InvalidRequest: true},
			want: errMaxLenExceeded,
		},
		{
			name: "invalid request beats bucket missing",
			a:    Action{InvalidRequest: true, BucketMeta: &fakeMetadata{state: OpMissing}},
			want: errMalformedRequest,
		},
		{
			name: "bucket missing beats backend failed",
			a:    Action{BucketMeta: &fakeMetadata{state: OpMissing}, BackendFailed: true},
			want: errNoSuchBucket,
		},
		{
			name: "backend failed alone",
			a:    Action{BackendFailed: true},
			want: errInternal,
		},
		{
			name: "clean action succeeds",
			a:    Action{},
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := tt.a.resolveOutcome()
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, tt.want, kind)
			}
		})
	}
}

func TestSendResult_IsTerminalOnce(t *testing.T) {
	req := newFakeRequest(nil)
	a := &Action{Request: req}

	a.SendResult(PutKeyValueResult{Index: "idx", Key: "k"})
	assert.True(t, req.resumed)
	assert.Equal(t, 200, req.status)

	// A second SendResult call must not overwrite the already-sent response.
	req.status = 0
	a.SendResult(PutKeyValueResult{Index: "other", Key: "other"})
	assert.Equal(t, 0, req.status)
}
