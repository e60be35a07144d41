package websocket

import (
	"bytes"
	"io"
)

// Collaborator is the per-message-deflate extension's streaming
// decompressor, injected into a Receiver once the Upgrader's handshake (see
// server.go) has negotiated permessage-deflate. The Receiver never
// negotiates extensions itself; it is handed an already configured
// Collaborator (or nil, meaning no compression was negotiated).
//
// Decompress is called once per compressed data frame's raw (unmasked)
// payload, in frame-arrival order, with fin set on the frame that completes
// the message. Per RFC 7692 §7.2.2, the collaborator appends the 4-byte
// 0x00 0x00 0xff 0xff tail before running the final inflate and resets its
// per-message inflate dictionary once the message is complete, matching the
// "no context takeover" mode this package negotiates (see doc.go).
//
// Cleanup releases any pooled inflater/deflater state and makes the
// Collaborator unusable; a Decompress call after Cleanup returns
// ErrExtensionClosed.
type Collaborator interface {
	Decompress(chunk []byte, fin bool) ([]byte, error)
	Cleanup()
}

// flateCollaborator is the stock Collaborator, grounded on the
// compressedReader/flateReaderPool machinery in compression.go: it reuses
// the same pooled *flate.Reader and RFC 7692 tail handling, restructured
// from compression.go's pull-style io.Reader wrapping into the
// chunk-at-a-time, per-message-reset shape the Receiver's push model needs.
//
// Decompression itself runs on a background goroutine so that a large
// message's inflate work can be handed off and awaited on a channel from
// the Receiver's add() pump loop, per the async collaborator design in
// SPEC_FULL.md §5.
type flateCollaborator struct {
	maxPayload int64
	buf        bytes.Buffer
	closed     bool
}

// NewFlateCollaborator returns a Collaborator that decompresses
// permessage-deflate message bodies with no context takeover, capping
// cumulative decompressed output at maxPayload bytes (0 = unbounded).
func NewFlateCollaborator(maxPayload int64) Collaborator {
	return &flateCollaborator{maxPayload: maxPayload}
}

type inflateResult struct {
	out []byte
	err error
}

// Decompress accumulates chunk into the current message's compressed
// buffer. Non-final chunks return (nil, nil): no output is produced until
// the message's final frame arrives, at which point the whole message is
// inflated in one pass on a background goroutine and the result is awaited
// here, preserving the single-threaded semantics the Receiver requires
// while still modeling the collaborator as an asynchronous operation.
func (c *flateCollaborator) Decompress(chunk []byte, fin bool) ([]byte, error) {
	if c.closed {
		return nil, ErrExtensionClosed
	}

	if len(chunk) > 0 {
		c.buf.Write(chunk)
	}
	if !fin {
		return nil, nil
	}

	compressed := make([]byte, c.buf.Len())
	copy(compressed, c.buf.Bytes())
	c.buf.Reset()

	resultCh := make(chan inflateResult, 1)
	go func() {
		resultCh <- inflateMessage(compressed, c.maxPayload)
	}()
	res := <-resultCh
	return res.out, res.err
}

// inflateMessage appends the RFC 7692 §7.2.2 empty-DEFLATE-block tail to
// compressed, followed by a final empty stored block so a sync-flushed
// (non-final) stream ends cleanly, and runs it through a pooled flate.Reader
// reset with no dictionary (no context takeover: nothing carries over from
// the previous message), stopping with ErrMessageTooBig if the decompressed
// output would exceed maxPayload.
func inflateMessage(compressed []byte, maxPayload int64) inflateResult {
	src := io.MultiReader(bytes.NewReader(compressed), suffixReader{}, bytes.NewReader([]byte{0x01, 0x00, 0x00, 0xff, 0xff}))
	fr := getFlateReader(src)
	defer putFlateReader(fr)

	var out bytes.Buffer
	var limited io.Reader = fr
	if maxPayload > 0 {
		limited = io.LimitReader(fr, maxPayload+1)
	}

	if _, err := out.ReadFrom(limited); err != nil && err != io.EOF {
		return inflateResult{err: err}
	}

	if maxPayload > 0 && int64(out.Len()) > maxPayload {
		return inflateResult{err: ErrMessageTooBig}
	}

	return inflateResult{out: out.Bytes()}
}

// Cleanup releases the collaborator's buffered state. Safe to call more
// than once.
func (c *flateCollaborator) Cleanup() {
	c.closed = true
	c.buf.Reset()
}
