package api

import (
	"bytes"
	"sync"
)

// maxPooledBuffer caps the size of buffers kept for reuse
const maxPooledBuffer = 16 * 1024

// bufferPool reuses request body buffers across batch workers
var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// getBuffer returns an empty buffer. Release it with putBuffer.
func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer returns buf to the pool unless it grew past maxPooledBuffer
func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= maxPooledBuffer {
		bufferPool.Put(buf)
	}
}
