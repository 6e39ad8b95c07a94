package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/format"
)

func TestSignature_PutAndClassify(t *testing.T) {
	sigs := []Signature{
		SignatureRowSize,
		SignatureColumnSize,
		SignatureSubheaderCounts,
		SignatureColumnText,
		SignatureColumnName,
		SignatureColumnAttributes,
		SignatureFormatAndLabel,
		SignatureColumnList,
	}

	for name, w := range allWords() {
		for _, sig := range sigs {
			t.Run(name+"/"+sig.String(), func(t *testing.T) {
				b := make([]byte, 8)
				PutSignature(w, b, sig)

				require.Equal(t, sig, ClassifySignature(w.Width(), b))
				require.True(t, IsMetadataSignature(w.Width(), b))
			})
		}
	}
}

func TestSignature_Unknown(t *testing.T) {
	row := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F}
	require.Equal(t, SignatureUnknown, ClassifySignature(format.Width64, row))
	require.False(t, IsMetadataSignature(format.Width64, row))

	require.Equal(t, SignatureUnknown, ClassifySignature(format.Width64, []byte{0xF7}))
	require.Equal(t, "Unknown", SignatureUnknown.String())
}

func TestSignature_RowSizeVariant(t *testing.T) {
	b := []byte{0xF7, 0xF7, 0xF7, 0xF7, 0xFF, 0xFF, 0xFB, 0xFE}
	require.Equal(t, SignatureRowSize, ClassifySignature(format.Width64, b))
}
