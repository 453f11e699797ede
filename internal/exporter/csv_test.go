package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bandicli/internal/errors"
	"bandicli/pkg/contracts/domain"
)

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer := NewCSVWriter(discardLogger())
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		options  WriteOptions
		expected [][]string
		hasBOM   bool
	}{
		{
			name: "headers and records",
			options: WriteOptions{
				Headers: []string{"Anno", "yhat"},
				Records: [][]string{{"2022", "5.00"}, {"2023", "6.00"}},
			},
			expected: [][]string{{"Anno", "yhat"}, {"2022", "5.00"}, {"2023", "6.00"}},
		},
		{
			name: "with BOM",
			options: WriteOptions{
				Headers:   []string{"Anno"},
				Records:   [][]string{{"2022"}},
				BOMPrefix: true,
			},
			expected: [][]string{{"Anno"}, {"2022"}},
			hasBOM:   true,
		},
		{
			name: "records only",
			options: WriteOptions{
				Records: [][]string{{"a", "b,c"}},
			},
			expected: [][]string{{"a", "b,c"}},
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, "nested", string(rune('a'+i))+".csv")
			require.NoError(t, writer.WriteCSV(path, tt.options))

			data, err := os.ReadFile(path)
			require.NoError(t, err)

			bom := []byte{0xEF, 0xBB, 0xBF}
			assert.Equal(t, tt.hasBOM, bytes.HasPrefix(data, bom))

			records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom))).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, records)
		})
	}
}

func TestCSVWriter_WriteForecastCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previsioni.csv")
	rows := []domain.ForecastRow{
		{Year: 2022, Estimate: 4.567, Lower: 1, Upper: 8.2},
		{Year: 2023, Estimate: 5, Lower: 2, Upper: 9},
	}

	require.NoError(t, NewCSVWriter(discardLogger()).WriteForecastCSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"\ufeffAnno,yhat,yhat_lower,yhat_upper\n2022,4.57,1.00,8.20\n2023,5.00,2.00,9.00\n",
		string(data))
}

func TestCSVWriter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	writer := NewCSVWriter(discardLogger())

	require.NoError(t, writer.WriteCSV(path, WriteOptions{Records: [][]string{{"first"}, {"second"}}}))
	require.NoError(t, writer.WriteCSV(path, WriteOptions{Records: [][]string{{"third"}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "third\n", string(data))
}

func TestCSVWriter_Errors(t *testing.T) {
	err := NewCSVWriter(discardLogger()).WriteCSV(t.TempDir(), WriteOptions{Records: [][]string{{"x"}}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
