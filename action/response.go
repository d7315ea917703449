package action

import (
	"encoding/xml"
	"net/http"
	"strconv"

	"s3gw/logger"
)

// ErrorDocument is the standard S3 <Error> document. Spec §6: "Code,
// Message, RequestId, Resource."
type ErrorDocument struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	RequestID string   `xml:"RequestId"`
	Resource  string   `xml:"Resource"`
}

// errorKind bundles the XML error code and HTTP status emitted together.
type errorKind struct {
	code    string
	status  int
	message string
}

var (
	errBadDigest         = errorKind{"BadDigest", http.StatusBadRequest, "The Content-MD5 you specified did not match what we received."}
	errMaxLenExceeded    = errorKind{"MaxMessageLengthExceeded", http.StatusBadRequest, "Your request was too big."}
	errMalformedRequest  = errorKind{"MalformedRequest", http.StatusBadRequest, "The XML or JSON you provided was not well-formed."}
	errNoSuchBucket      = errorKind{"NoSuchBucket", http.StatusNotFound, "The specified bucket does not exist."}
	errInternal          = errorKind{"InternalError", http.StatusInternalServerError, "We encountered an internal error. Please try again."}
)

// resolveOutcome implements the fixed priority ladder of spec §4.4.3/§4.5:
// content-corrupt, too-large, invalid-request, bucket-missing, any
// backend-client-failed, else success.
func (a *Action) resolveOutcome() (errorKind, bool) {
	switch {
	case a.ContentCorrupt:
		return errBadDigest, false
	case a.TooLarge:
		return errMaxLenExceeded, false
	case a.InvalidRequest:
		return errMalformedRequest, false
	case a.BucketMeta != nil && a.BucketMeta.State() == OpMissing:
		return errNoSuchBucket, false
	case a.BackendFailed:
		return errInternal, false
	default:
		return errorKind{}, true
	}
}

// SendError terminates the action with one of the fixed error kinds, bypassing
// the priority ladder (used when a step already knows its own terminal error,
// e.g. NoSuchUpload for an unrelated multipart verb).
func (a *Action) SendError(code string, status int, message string) {
	if !a.terminate() {
		return
	}
	a.writeXML(status, ErrorDocument{
		Code:      code,
		Message:   message,
		RequestID: a.Request.RequestID(),
		Resource:  a.Request.ResourceURI(),
	})
}

// SendResult is the terminal step every verb ultimately calls. It resolves
// the priority ladder, and on success marshals the caller-supplied payload;
// on failure it emits the matching <Error> document. Spec §4.5: "In every
// case: set Content-Type, set Content-Length, transmit the response, resume
// the request transport, invoke done(), and release the action instance."
func (a *Action) SendResult(successPayload any) {
	if !a.terminate() {
		return
	}

	kind, ok := a.resolveOutcome()
	if ok {
		a.writeXML(http.StatusOK, successPayload)
		return
	}

	a.writeXML(kind.status, ErrorDocument{
		Code:      kind.code,
		Message:   kind.message,
		RequestID: a.Request.RequestID(),
		Resource:  a.Request.ResourceURI(),
	})
}

func (a *Action) writeXML(status int, payload any) {
	body, err := xml.Marshal(payload)
	if err != nil {
		logger.Error("action: failed to marshal response payload: %v", err)
		body = []byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>InternalError</Code><Message>response serialization failed</Message></Error>`)
		status = http.StatusInternalServerError
	}

	a.Request.SetOutHeader("Content-Type", "application/xml")
	a.Request.SetOutHeader("Content-Length", strconv.Itoa(len(body)))
	a.Request.SendResponse(status, body)
	a.Request.Resume()
}
