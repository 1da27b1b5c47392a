package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mfpCSV  = "REF_DATE,North American Industry Classification System (NAICS),Multifactor productivity and related variables,VALUE\n1961-01-01,Construction [23],Gross output,100\n"
	metaCSV = "Cube Title,Product Id\nMultifactor productivity and related variables,36100217\n"
)

// buildArchive writes a ZIP with the given entries, in the shape the agency
// table downloads arrive in.
func buildArchive(t *testing.T, name string, entries map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), name)
	f, err := os.Create(zipPath)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for entry, content := range entries {
		fw, err := w.Create(entry)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return zipPath
}

func TestExtractZIP_StatCanTablePair(t *testing.T) {
	// Full-table downloads hold the data CSV plus a metadata CSV.
	zipPath := buildArchive(t, "36100217-eng.zip", map[string]string{
		"36100217.csv":          mfpCSV,
		"36100217_MetaData.csv": metaCSV,
	})

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	require.Len(t, extracted, 2)

	data, err := os.ReadFile(filepath.Join(destDir, "36100217.csv"))
	require.NoError(t, err)
	assert.Equal(t, mfpCSV, string(data))

	data, err = os.ReadFile(filepath.Join(destDir, "36100217_MetaData.csv"))
	require.NoError(t, err)
	assert.Equal(t, metaCSV, string(data))
}

func TestExtractZIPFile_DataCSVOnly(t *testing.T) {
	zipPath := buildArchive(t, "36100217-eng.zip", map[string]string{
		"36100217.csv":          mfpCSV,
		"36100217_MetaData.csv": metaCSV,
	})

	destDir := t.TempDir()
	path, err := ExtractZIPFile(zipPath, "36100217.csv", destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "36100217.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mfpCSV, string(data))

	_, err = os.Stat(filepath.Join(destDir, "36100217_MetaData.csv"))
	assert.True(t, os.IsNotExist(err), "metadata CSV should stay in the archive")
}

func TestExtractZIPFile_NotFound(t *testing.T) {
	zipPath := buildArchive(t, "36100217-eng.zip", map[string]string{
		"36100217.csv": mfpCSV,
	})

	_, err := ExtractZIPFile(zipPath, "36100222.csv", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExtractZIPSingle_BEAExtract(t *testing.T) {
	zipPath := buildArchive(t, "gdpbyind.zip", map[string]string{
		"gdpbyind_go_1947-1997.csv": "Industry,1947\nFarms,19.5\n",
	})

	destDir := t.TempDir()
	path, err := ExtractZIPSingle(zipPath, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "gdpbyind_go_1947-1997.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Industry,1947\nFarms,19.5\n", string(data))
}

func TestExtractZIPSingle_RejectsTablePair(t *testing.T) {
	zipPath := buildArchive(t, "36100217-eng.zip", map[string]string{
		"36100217.csv":          mfpCSV,
		"36100217_MetaData.csv": metaCSV,
	})

	_, err := ExtractZIPSingle(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected exactly 1 file")
}

func TestExtractZIP_NestedDirectories(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "historical.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	_, err = w.Create("historical/")
	require.NoError(t, err)
	fw, err := w.Create("historical/gdpbyind_sic_1947-1997.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Industry,1947\nFarms,19.5\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	// Directory entries do not count as extracted files
	require.Len(t, extracted, 1)

	data, err := os.ReadFile(filepath.Join(destDir, "historical", "gdpbyind_sic_1947-1997.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Industry,1947\nFarms,19.5\n", string(data))
}

func TestExtractZIP_RejectsEscapingPaths(t *testing.T) {
	zipPath := buildArchive(t, "bad.zip", map[string]string{
		"../../../etc/passwd": "nope",
	})

	_, err := ExtractZIP(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestExtractZIP_TruncatedDownload(t *testing.T) {
	// An interrupted download leaves a file that is not a valid archive.
	path := filepath.Join(t.TempDir(), "36100217-eng.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04 truncated"), 0o644))

	_, err := ExtractZIP(path, t.TempDir())
	require.Error(t, err)
}
