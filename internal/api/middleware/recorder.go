package middleware

import (
	"bytes"
	"net/http"
)

// statusRecorder passes writes through and remembers the status code. When
// capture is set it also keeps a copy of the body.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	capture *bytes.Buffer
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status != 0 {
		return
	}
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.WriteHeader(http.StatusOK)
	}
	if s.capture != nil {
		s.capture.Write(p)
	}
	return s.ResponseWriter.Write(p)
}

// Status is the code sent to the client, 200 if the handler never set one.
func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
