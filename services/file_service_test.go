package services_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbusdrive/common"
	"nimbusdrive/token"
)

func TestUpload_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	payload := "the quick brown fox"
	file, err := env.files.Upload(ctx, owner, nil, "report.pdf", "", strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", file.Name)
	assert.Equal(t, "application/pdf", file.MimeType)
	assert.Equal(t, int64(len(payload)), file.Size)
	assert.Nil(t, file.FolderID)

	content, err := env.files.GetContentForOwner(ctx, owner, file.ID.Hex())
	require.NoError(t, err)
	defer content.Reader.Close()

	data, err := io.ReadAll(content.Reader)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
	assert.Equal(t, "application/pdf", content.MimeType)
	assert.Equal(t, "report.pdf", content.Name)
	assert.Equal(t, int64(len(payload)), content.Size)
}

func TestUpload_ExplicitMimeTypeWins(t *testing.T) {
	env := newTestEnv(t)

	file, err := env.files.Upload(context.Background(), newOwnerID(), nil, "data.bin", "application/x-custom", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "application/x-custom", file.MimeType)
}

func TestUpload_EmptyName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.files.Upload(context.Background(), newOwnerID(), nil, "", "text/plain", strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestUpload_ForeignFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, err := env.folders.CreateFolder(ctx, "Docs", nil, newOwnerID())
	require.NoError(t, err)

	_, err = env.files.Upload(ctx, newOwnerID(), ptr(folder.ID.Hex()), "a.txt", "text/plain", strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetMetadata_NotOwned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.files.Upload(ctx, newOwnerID(), nil, "a.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	// Existing but not owned is indistinguishable from absent.
	_, err = env.files.GetMetadata(ctx, newOwnerID(), file.ID.Hex())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetMetadata_MalformedID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.files.GetMetadata(context.Background(), newOwnerID(), "not-a-hex-id")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestGetContentForOwner_MissingBlob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	file, err := env.files.Upload(ctx, owner, nil, "a.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	// The bytes vanish out-of-band; the row remains. Reads must report the
	// missing content, not a missing file.
	require.NoError(t, env.blobStore.Delete(ctx, file.StorageKey))

	_, err = env.files.GetContentForOwner(ctx, owner, file.ID.Hex())
	require.ErrorIs(t, err, common.ErrContentNotFound)

	// Metadata is still visible.
	meta, err := env.files.GetMetadata(ctx, owner, file.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "a.txt", meta.Name)
}

func TestListFiles_ScopedToFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	docs, err := env.folders.CreateFolder(ctx, "Docs", nil, owner)
	require.NoError(t, err)
	_, err = env.files.Upload(ctx, owner, nil, "root.txt", "text/plain", strings.NewReader("r"))
	require.NoError(t, err)
	_, err = env.files.Upload(ctx, owner, ptr(docs.ID.Hex()), "nested.txt", "text/plain", strings.NewReader("n"))
	require.NoError(t, err)

	rootFiles, err := env.files.List(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, rootFiles, 1)
	assert.Equal(t, "root.txt", rootFiles[0].Name)

	nested, err := env.files.List(ctx, owner, ptr(docs.ID.Hex()))
	require.NoError(t, err)
	require.Len(t, nested, 1)
	assert.Equal(t, "nested.txt", nested[0].Name)
}

func TestRenameFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	file, err := env.files.Upload(ctx, owner, nil, "draft.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	renamed, err := env.files.RenameFile(ctx, file.ID.Hex(), owner, "final.txt")
	require.NoError(t, err)
	assert.Equal(t, "final.txt", renamed.Name)

	meta, err := env.files.GetMetadata(ctx, owner, file.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "final.txt", meta.Name)

	// Content is untouched by a rename.
	content, err := env.files.GetContentForOwner(ctx, owner, file.ID.Hex())
	require.NoError(t, err)
	defer content.Reader.Close()
	data, err := io.ReadAll(content.Reader)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestRenameFile_NotOwned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.files.Upload(ctx, newOwnerID(), nil, "a.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = env.files.RenameFile(ctx, file.ID.Hex(), newOwnerID(), "b.txt")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	file, err := env.files.Upload(ctx, owner, nil, "a.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, env.files.DeleteFile(ctx, file.ID.Hex(), owner))

	_, err = env.files.GetMetadata(ctx, owner, file.ID.Hex())
	assert.ErrorIs(t, err, common.ErrNotFound)

	keys, err := env.blobStore.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, keys)

	// Second delete of the same id fails cleanly.
	err = env.files.DeleteFile(ctx, file.ID.Hex(), owner)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestIssueDownloadToken_SharedDownload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	payload := "shared bytes"
	file, err := env.files.Upload(ctx, owner, nil, "pub.txt", "text/plain", strings.NewReader(payload))
	require.NoError(t, err)

	signed, err := env.files.IssueDownloadToken(ctx, owner, file.ID.Hex())
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	// The holder needs no session; the token alone authorizes the read.
	content, err := env.files.GetContentShared(ctx, signed, file.ID.Hex())
	require.NoError(t, err)
	defer content.Reader.Close()
	data, err := io.ReadAll(content.Reader)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestIssueDownloadToken_NotOwned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.files.Upload(ctx, newOwnerID(), nil, "a.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = env.files.IssueDownloadToken(ctx, newOwnerID(), file.ID.Hex())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetContentShared_WrongFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	first, err := env.files.Upload(ctx, owner, nil, "a.txt", "text/plain", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := env.files.Upload(ctx, owner, nil, "b.txt", "text/plain", strings.NewReader("b"))
	require.NoError(t, err)

	signed, err := env.files.IssueDownloadToken(ctx, owner, first.ID.Hex())
	require.NoError(t, err)

	// Token for file A must not open file B.
	_, err = env.files.GetContentShared(ctx, signed, second.ID.Hex())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestGetContentShared_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	file, err := env.files.Upload(ctx, owner, nil, "a.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	expired, err := env.tokens.IssueCapability(owner, file.ID.Hex(), token.PurposeFileDownload, -time.Minute)
	require.NoError(t, err)

	_, err = env.files.GetContentShared(ctx, expired, file.ID.Hex())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestGetContentShared_WrongPurpose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newOwnerID()

	file, err := env.files.Upload(ctx, owner, nil, "a.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	wrong, err := env.tokens.IssueCapability(owner, file.ID.Hex(), "file-upload", time.Hour)
	require.NoError(t, err)

	_, err = env.files.GetContentShared(ctx, wrong, file.ID.Hex())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestGetContentShared_GarbageToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.files.GetContentShared(context.Background(), "not.a.jwt", newOwnerID())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}
