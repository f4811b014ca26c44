package qtvr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtatom"
)

func writeAtom(buf []byte, typ string, payload []byte) []byte {
	size := uint32(8 + len(payload))
	header := make([]byte, 8)
	header[0] = byte(size >> 24)
	header[1] = byte(size >> 16)
	header[2] = byte(size >> 8)
	header[3] = byte(size)
	copy(header[4:8], typ)
	buf = append(buf, header...)
	return append(buf, payload...)
}

func buildMovie(ctypID string, navgCount int) *qtatom.Atom {
	var udtaBody []byte
	udtaBody = writeAtom(udtaBody, "ctyp", []byte(ctypID))
	for i := 0; i < navgCount; i++ {
		udtaBody = writeAtom(udtaBody, "NAVG", make([]byte, 48))
	}

	var moovBody []byte
	moovBody = writeAtom(moovBody, "udta", udtaBody)

	var file []byte
	file = writeAtom(file, "moov", moovBody)

	root, err := qtatom.ParseRoot(file, qtatom.NewUnknownFourCCs())
	if err != nil {
		panic(err)
	}
	return root
}

func TestClassify_Object(t *testing.T) {
	root := buildMovie("stna", 1)
	kind, err := Classify(root)
	require.NoError(t, err)
	assert.Equal(t, Object, kind)
}

func TestClassify_ObjectWrongNAVGCount(t *testing.T) {
	root := buildMovie("stna", 2)
	kind, err := Classify(root)
	assert.Equal(t, NotQTVR, kind)
	require.Error(t, err)
	var qe *qerr.Error
	require.True(t, qerr.As(err, &qe))
	assert.Equal(t, qerr.KindNotQTVR, qe.Kind)
}

func TestClassify_Panorama(t *testing.T) {
	for _, id := range []string{"stpn", "STpn"} {
		root := buildMovie(id, 0)
		kind, err := Classify(root)
		require.NoError(t, err)
		assert.Equal(t, Panorama, kind)
	}
}

func TestClassify_V2Rejected(t *testing.T) {
	root := buildMovie("qtvr", 0)
	kind, err := Classify(root)
	assert.Equal(t, V2, kind)
	require.Error(t, err)
	var qe *qerr.Error
	require.True(t, qerr.As(err, &qe))
	assert.Equal(t, qerr.KindUnsupportedQTVR, qe.Kind)
}

func TestClassify_NotQTVR(t *testing.T) {
	root := buildMovie("bogs", 0)
	kind, err := Classify(root)
	require.NoError(t, err)
	assert.Equal(t, NotQTVR, kind)
}
