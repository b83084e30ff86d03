package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodec(t *testing.T) {
	codec := jsonCodec{}
	assert.Equal(t, "json", codec.Name())

	var req GetWordRequest
	require.NoError(t, codec.Unmarshal([]byte(`{"word":"amo"}`), &req))
	assert.Equal(t, GetWordRequest{Word: "amo"}, req)

	var empty ExploreDatabaseRequest
	require.NoError(t, codec.Unmarshal(nil, &empty))
	assert.Equal(t, ExploreDatabaseRequest{}, empty)

	assert.Error(t, codec.Unmarshal([]byte(`{"word":`), &req))

	data, err := codec.Marshal(&ExploreDatabaseRequest{TableName: "Entries", Limit: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tableName":"Entries","limit":5}`, string(data))
}
