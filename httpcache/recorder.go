package httpcache

import (
	"bytes"
	"net/http"
)

// recorder writes through to the client while keeping a copy of the status,
// headers and body for storage.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	header      http.Header
	body        bytes.Buffer
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *recorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = code
	r.header = r.ResponseWriter.Header().Clone()
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Unwrap exposes the client writer to http.ResponseController.
func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *recorder) Status() int {
	return r.status
}

// SnapshotHeader returns the headers as sent. Handlers that never wrote
// get the current header map.
func (r *recorder) SnapshotHeader() http.Header {
	if r.header != nil {
		return r.header.Clone()
	}
	return r.ResponseWriter.Header().Clone()
}

func (r *recorder) Body() []byte {
	return bytes.Clone(r.body.Bytes())
}
