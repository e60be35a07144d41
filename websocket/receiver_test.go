package websocket

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// feedInChunks feeds data to r one byte-span at a time, per chunkSizes, to
// exercise arbitrary fragmentation of the transport stream independent of
// WebSocket message fragmentation.
func feedInChunks(r *Receiver, data []byte, chunkSizes ...int) {
	if len(chunkSizes) == 0 {
		r.Add(data)
		return
	}
	off := 0
	for _, n := range chunkSizes {
		if off >= len(data) {
			return
		}
		end := off + n
		if end > len(data) {
			end = len(data)
		}
		r.Add(data[off:end])
		off = end
	}
	if off < len(data) {
		r.Add(data[off:])
	}
}

func TestReceiverUnmaskedText(t *testing.T) {
	var got string
	r := NewReceiver(nil, 0, Handlers{
		OnText: func(text string) { got = text },
	})

	r.Add(mustHex(t, "810548656c6c6f"))
	assert.Equal(t, "Hello", got)
}

func TestReceiverUnmaskedTextByteAtATime(t *testing.T) {
	var got string
	r := NewReceiver(nil, 0, Handlers{
		OnText: func(text string) { got = text },
	})

	data := mustHex(t, "810548656c6c6f")
	for _, b := range data {
		r.Add([]byte{b})
	}
	assert.Equal(t, "Hello", got)
}

func TestReceiverEmptyClose(t *testing.T) {
	var code int
	var reason string
	called := false
	r := NewReceiver(nil, 0, Handlers{
		OnClose: func(c int, rs string) { called = true; code = c; reason = rs },
	})

	r.Add(mustHex(t, "8800"))
	require.True(t, called)
	assert.Equal(t, CloseNoStatusReceived, code)
	assert.Empty(t, reason)
}

func TestReceiverMaskedText(t *testing.T) {
	var got string
	r := NewReceiver(nil, 0, Handlers{
		OnText: func(text string) { got = text },
	})

	r.Add(mustHex(t, "81933483a86801b992524fa1c60959e68a5216e6cb005ba1d5"))
	assert.Equal(t, `5:::{"name":"echo"}`, got)
}

func buildUnmaskedFrame(fin bool, opcode int, payload []byte) []byte {
	var b0 byte
	if fin {
		b0 |= finalBit
	}
	b0 |= byte(opcode)

	header := make([]byte, 10)
	header[0] = b0
	n := encodeLengthHeader(header, uint64(len(payload)))

	out := append([]byte{}, header[:n]...)
	out = append(out, payload...)
	return out
}

func TestReceiverFragmentedWithInterleavedPing(t *testing.T) {
	var pingOrder, textOrder int
	seq := 0
	var pingPayload string
	var textPayload string

	r := NewReceiver(nil, 0, Handlers{
		OnPing: func(data []byte) {
			seq++
			pingOrder = seq
			pingPayload = string(data)
		},
		OnText: func(text string) {
			seq++
			textOrder = seq
			textPayload = text
		},
	})

	first := strings.Repeat("A", 150)
	second := strings.Repeat("A", 150)

	frame1 := buildUnmaskedFrame(false, TextMessage, []byte(first))
	ping := buildUnmaskedFrame(true, PingMessage, []byte("Hello"))
	frame2 := buildUnmaskedFrame(true, continuationFrame, []byte(second))

	all := append(append(append([]byte{}, frame1...), ping...), frame2...)
	feedInChunks(r, all, 1, 3, 7, 17, 64, 200)

	require.Equal(t, "Hello", pingPayload)
	require.Equal(t, first+second, textPayload)
	assert.Less(t, pingOrder, textOrder)
}

func TestReceiverTotalPayloadLengthDuringFragmentation(t *testing.T) {
	var observations []uint64
	r := NewReceiver(nil, 10, Handlers{
		OnText: func(string) {},
	})

	observations = append(observations, r.TotalPayloadLength())
	r.Add(mustHex(t, "01024865"))
	observations = append(observations, r.TotalPayloadLength())
	r.Add(mustHex(t, "80036c6c6f"))
	observations = append(observations, r.TotalPayloadLength())

	assert.Equal(t, []uint64{0, 2, 0}, observations)
}

func TestReceiverOversizedMessage(t *testing.T) {
	var errCode int
	var gotErr error
	var binaryCalled bool

	r := NewReceiver(nil, 20*1024, Handlers{
		OnBinary: func([]byte) { binaryCalled = true },
		OnError:  func(err error, code int) { gotErr = err; errCode = code },
	})

	payload := make([]byte, 200*1024)
	frame := buildMaskedFrame(true, BinaryMessage, payload)
	r.Add(frame)

	require.Error(t, gotErr)
	assert.Equal(t, CloseMessageTooBig, errCode)
	assert.False(t, binaryCalled)
}

func buildMaskedFrame(fin bool, opcode int, payload []byte) []byte {
	unmasked := buildUnmaskedFrame(fin, opcode, payload)

	// Re-derive the header length (mask bit + payload) since
	// buildUnmaskedFrame already sized the length field.
	headerLen := len(unmasked) - len(payload)
	header := make([]byte, headerLen)
	copy(header, unmasked[:headerLen])
	header[1] |= maskBit

	mask := [4]byte{0x11, 0x22, 0x33, 0x44}
	masked := make([]byte, len(payload))
	copy(masked, payload)
	maskBytes(mask[:], 0, masked)

	out := append([]byte{}, header...)
	out = append(out, mask[:]...)
	out = append(out, masked...)
	return out
}

func TestReceiverPostErrorQuarantine(t *testing.T) {
	errCount := 0
	var textCount int

	r := NewReceiver(nil, 10, Handlers{
		OnText:  func(string) { textCount++ },
		OnError: func(error, int) { errCount++ },
	})

	oversized := buildMaskedFrame(true, BinaryMessage, make([]byte, 100))
	r.Add(oversized)
	require.Equal(t, 1, errCount)

	r.Add(mustHex(t, "810548656c6c6f"))
	assert.Equal(t, 1, errCount)
	assert.Equal(t, 0, textCount)
}

func TestReceiverCompressedSingleFrame(t *testing.T) {
	compressed, err := compressData([]byte("Hello"), defaultCompressionLevel)
	require.NoError(t, err)

	var got string
	r := NewReceiver(map[string]string{"permessage-deflate": ""}, 0, Handlers{
		OnText: func(text string) { got = text },
	})

	b0 := byte(TextMessage) | finalBit | rsv1Bit
	frame := append([]byte{b0, byte(len(compressed))}, compressed...)
	r.Add(frame)

	assert.Equal(t, "Hello", got)
}

func TestReceiverCompressedFragments(t *testing.T) {
	// permessage-deflate fragmentation splits a single continuous DEFLATE
	// bitstream across frames; it is not the concatenation of two
	// independently-compressed messages, so compress "foobar" once and
	// split the resulting bytes to build the two wire frames.
	whole, err := compressData([]byte("foobar"), defaultCompressionLevel)
	require.NoError(t, err)
	require.True(t, len(whole) >= 2, "need at least 2 compressed bytes to split")
	split := len(whole) / 2
	foo, bar := whole[:split], whole[split:]

	var got string
	r := NewReceiver(map[string]string{"permessage-deflate": ""}, 0, Handlers{
		OnText: func(text string) { got = text },
	})

	b0First := byte(TextMessage) | rsv1Bit // fin=0, rsv1=1
	frame1 := append([]byte{b0First, byte(len(foo))}, foo...)
	b0Second := byte(continuationFrame) | finalBit
	frame2 := append([]byte{b0Second, byte(len(bar))}, bar...)

	r.Add(frame1)
	r.Add(frame2)

	assert.Equal(t, "foobar", got)
}

func TestReceiverRejectsRSV1WithoutCollaborator(t *testing.T) {
	var gotErr error
	r := NewReceiver(nil, 0, Handlers{
		OnError: func(err error, code int) { gotErr = err },
	})

	b0 := byte(TextMessage) | finalBit | rsv1Bit
	r.Add([]byte{b0, 0x00})

	require.ErrorIs(t, gotErr, ErrReservedBits)
}

func TestReceiverRejectsUnsolicitedContinuation(t *testing.T) {
	var gotErr error
	r := NewReceiver(nil, 0, Handlers{
		OnError: func(err error, code int) { gotErr = err },
	})

	r.Add(buildUnmaskedFrame(true, continuationFrame, []byte("x")))
	require.ErrorIs(t, gotErr, ErrUnexpectedContinuation)
}

func TestReceiverRejectsFragmentedControlFrame(t *testing.T) {
	var gotErr error
	r := NewReceiver(nil, 0, Handlers{
		OnError: func(err error, code int) { gotErr = err },
	})

	r.Add([]byte{byte(PingMessage), 0x00}) // fin=0
	require.ErrorIs(t, gotErr, ErrFragmentedControlFrame)
}

func TestReceiverCleanupStopsDispatch(t *testing.T) {
	called := false
	r := NewReceiver(nil, 0, Handlers{
		OnText: func(string) { called = true },
	})

	r.Cleanup()
	r.Add(mustHex(t, "810548656c6c6f"))
	assert.False(t, called)
}

func TestReceiverArbitraryChunkingIsEquivalent(t *testing.T) {
	data := mustHex(t, "810548656c6c6f")

	var wholeResult string
	whole := NewReceiver(nil, 0, Handlers{OnText: func(s string) { wholeResult = s }})
	whole.Add(data)

	var chunkedResult string
	chunked := NewReceiver(nil, 0, Handlers{OnText: func(s string) { chunkedResult = s }})
	feedInChunks(chunked, data, 1, 2, 1, 3)

	assert.Equal(t, wholeResult, chunkedResult)
}
