package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutGet(t *testing.T) {
	ctx := context.Background()
	bs, err := Open(ctx, Options{Driver: "fs", BasePath: t.TempDir()})
	require.NoError(t, err)

	key, err := bs.Put(ctx, "snapshots/round-1/a.json", strings.NewReader(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "snapshots/round-1/a.json", key)

	rc, err := bs.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	u, err := bs.SignedURL(ctx, key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, "snapshots/round-1/a.json"))
}

func TestFSStore_KeysStayInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	bs, err := NewFSStore(base)
	require.NoError(t, err)

	_, err = bs.Put(ctx, "../../escape.json", strings.NewReader("x"))
	require.NoError(t, err)
	p, err := bs.path("../../escape.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, base))

	_, err = bs.Put(ctx, "", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "gcs"})
	assert.Error(t, err)
}
