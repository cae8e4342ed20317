package checker

import (
	"crypto/x509"
	"errors"
	"strings"
)

// TLS failure taxonomy. Every handshake error maps to exactly one of these.
const (
	tlsFailureExpired   = "certificate expired"
	tlsFailureUntrusted = "untrusted certificate chain"
	tlsFailureHostname  = "hostname mismatch"
	tlsFailureGeneric   = "tls handshake failed"
)

// classifyTLSError maps a transport error from an HTTPS request to the
// fixed failure taxonomy. Non-TLS errors return an empty string.
func classifyTLSError(err error) string {
	if err == nil {
		return ""
	}

	var certErr x509.CertificateInvalidError
	if errors.As(err, &certErr) {
		if certErr.Reason == x509.Expired {
			return tlsFailureExpired
		}
		return tlsFailureUntrusted
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return tlsFailureHostname
	}
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthErr) {
		return tlsFailureUntrusted
	}

	// Error chains from remote handshakes do not always survive errors.As,
	// so fall back to message matching.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired"):
		return tlsFailureExpired
	case strings.Contains(msg, "unknown authority"), strings.Contains(msg, "self-signed"):
		return tlsFailureUntrusted
	case strings.Contains(msg, "not valid for"), strings.Contains(msg, "hostname"):
		return tlsFailureHostname
	case strings.Contains(msg, "tls"), strings.Contains(msg, "certificate"), strings.Contains(msg, "handshake"):
		return tlsFailureGeneric
	}
	return ""
}
