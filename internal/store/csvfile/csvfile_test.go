package csvfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataweb/internal/store"
)

var sample = store.Table{
	Header:  []string{"query_year", "Country", "Value", "col_4"},
	Records: [][]any{{"1996", "Korea, South", "1,300", nil}},
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sample))
	assert.Equal(t, "query_year,Country,Value,col_4\n1996,\"Korea, South\",\"1,300\",\n", buf.String())
}

func TestWriteCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "report.csv")
	require.NoError(t, Write(path, sample))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "query_year,Country")
}

func TestWriteRequiresPath(t *testing.T) {
	assert.Error(t, Write("", sample))
}
