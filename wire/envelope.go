package wire

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Status discriminates the two arms of an Envelope.
type Status int

const (
	// StatusSuccess indicates the callback ran to completion; Payload holds
	// its encoded return value.
	StatusSuccess Status = iota
	// StatusFail indicates the callback returned an error or panicked;
	// ErrorDescription holds a description sufficient to diagnose it.
	StatusFail
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "SUCCESS"
	}
	return "FAIL"
}

// Envelope is the tagged record a worker pushes for every task it handles.
// Exactly one of Payload / ErrorDescription is populated, consistent with
// Status; callers that need the decoded payload value use a Codec against
// Payload (see Codec.Decode).
type Envelope struct {
	Status           Status
	Payload          []byte // present iff Status == StatusSuccess
	ErrorDescription string // present iff Status == StatusFail
}

// Success builds a StatusSuccess envelope from already-encoded payload bytes.
func Success(payload []byte) Envelope {
	return Envelope{Status: StatusSuccess, Payload: payload}
}

// Fail builds a StatusFail envelope describing err.
func Fail(err error) Envelope {
	return Envelope{Status: StatusFail, ErrorDescription: describe(err)}
}

// describe renders an error (or recovered panic value, wrapped by the
// caller into an error) into a string sufficient for the submitter to
// diagnose, without assuming the receiving process shares the error's
// concrete type.
func describe(err error) string {
	return fmt.Sprintf("%v", err)
}

// EncodeEnvelope frames an Envelope using the fabric-owned gob codec.
func EncodeEnvelope(e Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEnvelope unframes an Envelope using the fabric-owned gob codec.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
