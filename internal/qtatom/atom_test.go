package qtatom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeAtom appends a length-prefixed, four-byte-tag atom header followed
// by payload, mirroring the teacher's core/probe_test.go fixture
// technique (hand-assembled synthetic atom bytes) adapted to an in-memory
// buffer instead of a temp file.
func writeAtom(buf []byte, typ string, payload []byte) []byte {
	size := uint32(8 + len(payload))
	header := make([]byte, 8)
	header[0] = byte(size >> 24)
	header[1] = byte(size >> 16)
	header[2] = byte(size >> 8)
	header[3] = byte(size)
	copy(header[4:8], typ)
	buf = append(buf, header...)
	buf = append(buf, payload...)
	return buf
}

func TestParseRoot_ContainerLeafAndGobble(t *testing.T) {
	var file []byte
	file = writeAtom(file, "ftyp", make([]byte, 12))

	var moovBody []byte
	moovBody = writeAtom(moovBody, "mvhd", append([]byte{0, 0, 0, 0}, make([]byte, 96)...))
	moovBody = writeAtom(moovBody, "zzzz", []byte("unknown atom payload")) // unregistered under moov
	file = writeAtom(file, "moov", moovBody)

	file = writeAtom(file, "mdat", make([]byte, 32))

	unknown := NewUnknownFourCCs()
	root, err := ParseRoot(file, unknown)
	require.NoError(t, err)
	require.Len(t, root.Children, 3)

	assert.Equal(t, "ftyp", root.Children[0].Type)
	assert.Equal(t, KindGobble, root.Children[0].Kind) // ftyp has no schema entry at root

	moov := root.Children[1]
	assert.Equal(t, "moov", moov.Type)
	assert.Equal(t, KindContainer, moov.Kind)
	require.Len(t, moov.Children, 2)
	assert.Equal(t, "mvhd", moov.Children[0].Type)
	assert.Equal(t, KindLeaf, moov.Children[0].Kind)
	assert.IsType(t, &Mvhd{}, moov.Children[0].Leaf)

	assert.Equal(t, "zzzz", moov.Children[1].Type)
	assert.Equal(t, KindGobble, moov.Children[1].Kind)

	assert.Equal(t, "mdat", root.Children[2].Type)
	assert.Contains(t, unknown.List(), "zzzz")
	assert.Contains(t, unknown.List(), "ftyp")
}

func TestParseRoot_MalformedSizeErrors(t *testing.T) {
	file := []byte{0, 0, 0, 4, 'f', 't', 'y', 'p'} // size 4 is smaller than the 8-byte header itself
	_, err := ParseRoot(file, NewUnknownFourCCs())
	assert.Error(t, err)
}

func TestParseRoot_UdtaZeroSentinelTerminatesChildren(t *testing.T) {
	var udtaBody []byte
	udtaBody = writeAtom(udtaBody, "WLOC", []byte{0, 10, 0, 20})
	udtaBody = append(udtaBody, 0, 0, 0, 0) // four-zero-byte sentinel, not a size-0 atom
	udtaBody = writeAtom(udtaBody, "NAVG", make([]byte, 28))

	var moovBody []byte
	moovBody = writeAtom(moovBody, "udta", udtaBody)

	var file []byte
	file = writeAtom(file, "moov", moovBody)

	root, err := ParseRoot(file, NewUnknownFourCCs())
	require.NoError(t, err)
	udta := root.Children[0].Children[0]
	require.Len(t, udta.Children, 1) // NAVG after the sentinel is never reached
	assert.Equal(t, "WLOC", udta.Children[0].Type)
}

func TestParseRoot_UdtaSentinelAsFinalFourBytes(t *testing.T) {
	// The sentinel commonly lands as the literal last 4 bytes of udta's
	// payload, with nothing required to follow it (fewer than 8 bytes
	// remain). This must terminate gracefully, not raise a malformed-atom
	// "fewer than 8 bytes remain" error.
	var udtaBody []byte
	udtaBody = writeAtom(udtaBody, "WLOC", []byte{0, 10, 0, 20})
	udtaBody = append(udtaBody, 0, 0, 0, 0)

	var moovBody []byte
	moovBody = writeAtom(moovBody, "udta", udtaBody)

	var file []byte
	file = writeAtom(file, "moov", moovBody)

	root, err := ParseRoot(file, NewUnknownFourCCs())
	require.NoError(t, err)
	udta := root.Children[0].Children[0]
	require.Len(t, udta.Children, 1)
	assert.Equal(t, "WLOC", udta.Children[0].Type)
}
