package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingMirror struct {
	keys []string
	err  error
}

func (m *recordingMirror) Upload(_ context.Context, key string, _ []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, key+"|"+contentType)
	return nil
}

func TestCertificateKey(t *testing.T) {
	key, err := CertificateKey("QGIS Project", "QGISProject-12")
	require.NoError(t, err)
	assert.Equal(t, "certificate_organisations/qgis_project/QGISProject-12.pdf", key)

	for _, tc := range []struct{ project, id string }{
		{"QGIS", "../etc/passwd"},
		{"QGIS", "a/b"},
		{"QGIS", ".."},
		{"../x", "QGIS-1"},
		{"", "QGIS-1"},
		{"QGIS", ""},
	} {
		_, err := CertificateKey(tc.project, tc.id)
		assert.ErrorIs(t, err, ErrInvalidDocumentPath, "%q %q", tc.project, tc.id)
	}
}

func TestDocumentStorage_Save(t *testing.T) {
	root := t.TempDir()
	mirror := &recordingMirror{}
	s, err := NewDocumentStorage(root, mirror, zap.NewNop())
	require.NoError(t, err)

	p, err := s.Save(context.Background(), "QGIS Project", "QGISProject-1", []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "certificate_organisations", "qgis_project", "QGISProject-1.pdf"), p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Equal(t, []string{"certificate_organisations/qgis_project/QGISProject-1.pdf|application/pdf"}, mirror.keys)

	t.Run("overwrite", func(t *testing.T) {
		_, err := s.Save(context.Background(), "QGIS Project", "QGISProject-1", []byte("%PDF-2"))
		require.NoError(t, err)
		data, err := s.Open("QGIS Project", "QGISProject-1")
		require.NoError(t, err)
		assert.Equal(t, "%PDF-2", string(data))
	})

	t.Run("traversal", func(t *testing.T) {
		_, err := s.Save(context.Background(), "QGIS", "../../escape", []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidDocumentPath)
	})

	t.Run("mirror failure", func(t *testing.T) {
		failing, err := NewDocumentStorage(root, &recordingMirror{err: errors.New("bucket gone")}, nil)
		require.NoError(t, err)
		_, err = failing.Save(context.Background(), "QGIS", "QGIS-2", []byte("x"))
		assert.ErrorContains(t, err, "bucket gone")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Save(ctx, "QGIS", "QGIS-3", []byte("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewDocumentStorage_RequiresRoot(t *testing.T) {
	_, err := NewDocumentStorage(" ", nil, nil)
	assert.Error(t, err)
}
