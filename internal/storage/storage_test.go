package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

func TestAllowedExtension(t *testing.T) {
	allowed := []string{"report.pdf", "scan.PNG", "photo.jpg", "photo.jpeg", "letter.doc", "letter.docx", "sheet.xls", "sheet.xlsx"}
	for _, name := range allowed {
		assert.True(t, AllowedExtension(name), name)
	}

	denied := []string{"malware.exe", "script.sh", "archive.zip", "noextension", "trailingdot."}
	for _, name := range denied {
		assert.False(t, AllowedExtension(name), name)
	}
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFileName("report.pdf"))
	assert.Equal(t, "report.pdf", SanitizeFileName("../../etc/report.pdf"))
	assert.Equal(t, "report.pdf", SanitizeFileName(`C:\Users\me\report.pdf`))
	assert.Equal(t, "my_report_final.pdf", SanitizeFileName("my report?final.pdf"))
}

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Store(context.Background(), "notes.pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "_notes.pdf"))

	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestDiskStoreRejectsDisallowedExtension(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Store(context.Background(), "malware.exe", strings.NewReader("boom"))
	require.Error(t, err)
	assert.Equal(t, "INVALID_ATTACHMENT", apperrors.Code(err))
}

func TestDiskStoreOpenRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../secret.pdf")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))

	_, err = store.Open(context.Background(), "missing.pdf")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}
