// Package classify maps a raw scan input string to the kind of artifact it
// names: URL, file hash, domain, or IP address. File uploads never pass
// through here; they are routed by their multipart form field instead.
package classify

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/vigilynx/vigilynx/internal/model"
)

// ErrUnrecognizedInput is returned when a string matches none of the known
// input shapes. The caller should surface it as a user-correctable error.
var ErrUnrecognizedInput = errors.New("unrecognized input type")

var (
	// URL detection is intentionally broad: an optional scheme, a dotted
	// host, then anything path/query shaped.
	urlPattern = regexp.MustCompile(`^(https?://)?([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}(/[^\s]*)?(\?[^\s]*)?$`)

	// MD5, SHA-1 and SHA-256 digests by length. Content beyond being hex is
	// not validated.
	hashPattern = regexp.MustCompile(`^[a-fA-F0-9]{32}$|^[a-fA-F0-9]{40}$|^[a-fA-F0-9]{64}$`)

	// A single label plus TLD of at least two letters. Hyphens may not lead
	// or trail the label.
	domainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{1,61}[a-zA-Z0-9]\.[a-zA-Z]{2,}$`)

	ipPattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
)

// Detect returns the input type for a trimmed string. Rules are evaluated in
// order and the first match wins: the URL pattern is broad enough to swallow
// bare domains, so it must run first, while hash/domain/IP shapes are
// mutually exclusive.
func Detect(input string) (model.InputType, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrUnrecognizedInput
	}

	switch {
	case urlPattern.MatchString(input):
		return model.InputURL, nil
	case hashPattern.MatchString(input):
		return model.InputHash, nil
	case domainPattern.MatchString(input):
		return model.InputDomain, nil
	case ipPattern.MatchString(input) && validOctets(input):
		return model.InputIP, nil
	default:
		return "", ErrUnrecognizedInput
	}
}

// validOctets tightens the structural dotted-quad match to real IPv4 octet
// ranges so inputs like 999.999.999.999 are rejected rather than forwarded
// upstream.
func validOctets(ip string) bool {
	for _, part := range strings.Split(ip, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}
