package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/store"
)

func TestCodec_CommandRoundTrip(t *testing.T) {
	commands := []Command{
		&AddBucketCommand{Bucket: "b"},
		&RemoveBucketCommand{Bucket: "b"},
		&PutValueCommand{Bucket: "b", Key: "k", Value: store.Value(`{"v":1}`), Predicate: "gjson:v"},
		&RemoveValueCommand{Bucket: "b", Key: "k"},
		&GetValueCommand{Bucket: "b", Key: "k"},
		&GetValuesCommand{Bucket: "b", Keys: []string{"k1", "k2"}},
		&GetKeysCommand{Bucket: "b"},
		&GetBucketsCommand{},
		&RangeQueryCommand{Bucket: "b", Range: store.Range{StartKey: "a", EndKey: "z", Limit: 3, ComparatorName: "lexicographical"}, TimeToLive: 250},
		&UpdateCommand{Bucket: "b", Key: "k", Update: store.Update{FunctionName: "merge", TimeoutMs: 100, Params: map[string]any{"x": "y"}}},
		&MembershipCommand{},
	}
	for _, cmd := range commands {
		var buf bytes.Buffer
		require.NoError(t, WriteCommand(&buf, cmd))

		decoded, err := ReadCommand(&buf)
		require.NoError(t, err)
		assert.Equal(t, cmd.Tag(), decoded.Tag())
	}
}

func TestCodec_PutValueCarriesDocument(t *testing.T) {
	var buf bytes.Buffer
	cmd := &PutValueCommand{Bucket: "b", Key: "k", Value: store.Value(`{"v":1}`)}
	require.NoError(t, WriteCommand(&buf, cmd))

	decoded, err := ReadCommand(&buf)
	require.NoError(t, err)
	put, ok := decoded.(*PutValueCommand)
	require.True(t, ok)
	assert.Equal(t, "b", put.Bucket)
	assert.Equal(t, "k", put.Key)
	assert.JSONEq(t, `{"v":1}`, string(put.Value.Bytes()))
	assert.Empty(t, put.Predicate)
}

func TestCodec_ReplyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReply(&buf, &Result{
		Values: map[string]store.Value{"k": store.Value(`{"v":1}`)},
		Keys:   []string{"k"},
	}))

	result, errMsg, err := ReadReply(&buf)
	require.NoError(t, err)
	require.Nil(t, errMsg)
	assert.Equal(t, []string{"k"}, result.Keys)
	assert.JSONEq(t, `{"v":1}`, string(result.Values["k"].Bytes()))
}

func TestCodec_ErrorReplyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteErrorReply(&buf, common.Errorf(common.ConflictCode, "unsatisfied condition")))

	result, errMsg, err := ReadReply(&buf)
	require.NoError(t, err)
	require.Nil(t, result)
	require.NotNil(t, errMsg)
	assert.Equal(t, common.ConflictCode, errMsg.Code)
	assert.Contains(t, errMsg.Message, "unsatisfied")
}

func TestCodec_ViewRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	view := View{Cluster: "beta", Members: []Member{{Name: "n1", Host: "10.0.0.1", Port: 6000}}}
	require.NoError(t, WriteReply(&buf, &Result{View: &view}))

	result, errMsg, err := ReadReply(&buf)
	require.NoError(t, err)
	require.Nil(t, errMsg)
	require.NotNil(t, result.View)
	assert.Equal(t, view, *result.View)
}

func TestCodec_UnknownTag(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 2, 0xFF, '{', '}'})
	_, err := ReadCommand(&buf)
	assert.Error(t, err)
}

func TestCodec_TruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCommand(&buf, &GetBucketsCommand{}))
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-1])
	_, err := ReadCommand(truncated)
	assert.Error(t, err)
}
