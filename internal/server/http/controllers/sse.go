package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// sseSink writes records as Server-Sent Events.
type sseSink struct {
	w http.ResponseWriter
}

// Send writes one record event. The event id is the record sequence number.
func (s sseSink) Send(rec recordJSON) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("id: " + strconv.FormatUint(rec.Seq, 10) + "\ndata: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	_, err = s.w.Write([]byte("\n\n"))
	return err
}

// Flush pushes buffered events to the client.
func (s sseSink) Flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
