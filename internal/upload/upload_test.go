package upload

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type fakeScanner struct {
	err     error
	scanned int
}

func (f *fakeScanner) Scan(r io.Reader) error {
	data, _ := io.ReadAll(r)
	f.scanned += len(data)
	return f.err
}

func TestToDataURI_AcceptsImage(t *testing.T) {
	scanner := &fakeScanner{}
	v := NewValidator(1024, scanner)

	res, err := v.ToDataURI(bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.MIME)
	assert.True(t, strings.HasPrefix(res.DataURI, "data:image/png;base64,iVBORw0KGgo"))
	assert.True(t, IsDataURI(res.DataURI))
	assert.Equal(t, len(pngHeader), scanner.scanned)
}

func TestToDataURI_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		max    int64
		reason string
	}{
		{name: "empty", data: nil, max: 1024, reason: ReasonEmpty},
		{name: "too large", data: pngHeader, max: 8, reason: ReasonTooLarge},
		{name: "text", data: []byte("hello world"), max: 1024, reason: ReasonUnsupported},
		{name: "pdf", data: []byte("%PDF-1.4\n"), max: 1024, reason: ReasonUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewValidator(tc.max, nil).ToDataURI(bytes.NewReader(tc.data))
			var warning *ValidationWarning
			require.True(t, errors.As(err, &warning), "got %v", err)
			assert.Equal(t, tc.reason, warning.Reason)
		})
	}
}

func TestToDataURI_Scanner(t *testing.T) {
	infected := &fakeScanner{err: &ValidationWarning{Reason: ReasonMalware, Detail: "Eicar-Test-Signature"}}
	_, err := NewValidator(1024, infected).ToDataURI(bytes.NewReader(pngHeader))
	assert.True(t, IsValidationWarning(err))

	broken := &fakeScanner{err: errors.New("dial tcp: connection refused")}
	_, err = NewValidator(1024, broken).ToDataURI(bytes.NewReader(pngHeader))
	require.Error(t, err)
	assert.False(t, IsValidationWarning(err))
}

func TestIsDataURI(t *testing.T) {
	assert.True(t, IsDataURI("data:image/jpeg;base64,/9j/"))
	assert.False(t, IsDataURI("https://example.com/a.png"))
	assert.False(t, IsDataURI("data:text/html;base64,PGI+"))
}
