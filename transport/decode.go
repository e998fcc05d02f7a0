package transport

import (
	"fmt"
	"io"
	"os"
)

// BodyKind identifies how a response body was materialized.
type BodyKind int

const (
	// BodyNone means the response carried no materialized body.
	BodyNone BodyKind = iota
	// BodyText is a fully-read body held as a string.
	BodyText
	// BodyBytes is a fully-read body held as raw bytes.
	BodyBytes
	// BodyStream is an open reader the caller must close.
	BodyStream
	// BodyFile is a body spooled to a temporary file.
	BodyFile
)

// Body is a response body materialized by a DecodeStrategy. Accessors for a
// kind other than the one the strategy produced return zero values.
type Body struct {
	kind   BodyKind
	text   string
	raw    []byte
	stream io.ReadCloser
	path   string
}

// Kind returns how the body was materialized.
func (b Body) Kind() BodyKind { return b.kind }

// Text returns the body as a string (BodyText only).
func (b Body) Text() string { return b.text }

// Bytes returns the body as raw bytes (BodyBytes only).
func (b Body) Bytes() []byte { return b.raw }

// Stream returns the open body reader (BodyStream only). The caller owns it
// and must close it.
func (b Body) Stream() io.ReadCloser { return b.stream }

// FilePath returns the path of the spooled body file (BodyFile only). The
// caller owns the file and removes it when done.
func (b Body) FilePath() string { return b.path }

// DecodeStrategy materializes a successful response body. The strategy is
// selected per call so one request shape can be read as text, bytes, a
// stream, or a file.
type DecodeStrategy interface {
	Materialize(body io.ReadCloser) (Body, error)
}

type stringDecode struct{}

func (stringDecode) Materialize(body io.ReadCloser) (Body, error) {
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return Body{}, NewTransportError("failed to read response body", err)
	}
	return Body{kind: BodyText, text: string(data)}, nil
}

type bytesDecode struct{}

func (bytesDecode) Materialize(body io.ReadCloser) (Body, error) {
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return Body{}, NewTransportError("failed to read response body", err)
	}
	return Body{kind: BodyBytes, raw: data}, nil
}

type streamDecode struct{}

func (streamDecode) Materialize(body io.ReadCloser) (Body, error) {
	// Ownership of the reader passes to the caller
	return Body{kind: BodyStream, stream: body}, nil
}

type fileDecode struct {
	dir string
}

func (d fileDecode) Materialize(body io.ReadCloser) (Body, error) {
	defer body.Close()
	f, err := os.CreateTemp(d.dir, "response-*")
	if err != nil {
		return Body{}, NewTransportError("failed to create response file", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return Body{}, NewTransportError("failed to spool response body", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return Body{}, NewTransportError(fmt.Sprintf("failed to close response file %s", f.Name()), err)
	}
	return Body{kind: BodyFile, path: f.Name()}, nil
}

// DecodeString materializes the body as a string.
func DecodeString() DecodeStrategy { return stringDecode{} }

// DecodeBytes materializes the body as raw bytes.
func DecodeBytes() DecodeStrategy { return bytesDecode{} }

// DecodeStream hands the open body reader to the caller without buffering.
func DecodeStream() DecodeStrategy { return streamDecode{} }

// DecodeFile spools the body to a temporary file in dir (or the system temp
// directory when dir is empty).
func DecodeFile(dir string) DecodeStrategy { return fileDecode{dir: dir} }
