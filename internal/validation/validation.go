// Package validation provides the pure input checks applied before any
// request reaches a firewall provider.
package validation

import (
	"strconv"
	"strings"
)

// Reasons returned by ValidateIPv4.
const (
	ReasonIPv6        = "IPv6 addresses are not supported"
	ReasonFormat      = "Invalid IPv4 address format"
	ReasonPrivate     = "Private IP addresses (RFC 1918) are not allowed"
	ReasonLabelFormat = "Invalid label selector format"
)

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

// isLabelChar returns true if the byte may appear in a label key or value.
func isLabelChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isNum(b) ||
		b == '_' || b == '.' || b == '/' || b == '-'
}

// parseOctet parses one dotted-quad part: one to three digits, 0-255, and no
// leading zero unless the part is exactly "0".
func parseOctet(part string) (int, bool) {
	if len(part) == 0 || len(part) > 3 {
		return 0, false
	}
	for i := 0; i < len(part); i++ {
		if !isNum(part[i]) {
			return 0, false
		}
	}
	if len(part) > 1 && part[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(part)
	if err != nil || n > 255 {
		return 0, false
	}
	return n, true
}

// ValidateIPv4 checks that ip is a well-formed, public IPv4 literal.
// Format problems are reported before range problems, and anything
// containing a colon is rejected as IPv6 without further parsing.
func ValidateIPv4(ip string) error {
	if strings.Contains(ip, ":") {
		return NewValidationError("myip", ip, ReasonIPv6)
	}

	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return NewValidationError("myip", ip, ReasonFormat)
	}

	var octets [4]int
	for i, part := range parts {
		n, ok := parseOctet(part)
		if !ok {
			return NewValidationError("myip", ip, ReasonFormat)
		}
		octets[i] = n
	}

	if IsPrivate(octets) {
		return NewValidationError("myip", ip, ReasonPrivate)
	}

	return nil
}

// IsPrivate reports whether the address lies in 10/8, 172.16/12 or 192.168/16.
func IsPrivate(octets [4]int) bool {
	switch {
	case octets[0] == 10:
		return true
	case octets[0] == 172 && octets[1] >= 16 && octets[1] <= 31:
		return true
	case octets[0] == 192 && octets[1] == 168:
		return true
	}
	return false
}

// validateLabelToken validates a label key or value.
func validateLabelToken(token string) bool {
	if token == "" {
		return false
	}
	for _, b := range []byte(token) {
		if !isLabelChar(b) {
			return false
		}
	}
	return true
}

// ValidateLabelSelector validates a comma separated list of key or
// key=value terms, each drawn from [A-Za-z0-9_./-]+.
func ValidateLabelSelector(selector string) error {
	if selector == "" {
		return NewValidationError("hostname", selector, ReasonLabelFormat)
	}
	for _, term := range strings.Split(selector, ",") {
		key, value, hasValue := strings.Cut(term, "=")
		if !validateLabelToken(key) {
			return NewValidationError("hostname", selector, ReasonLabelFormat)
		}
		if hasValue && !validateLabelToken(value) {
			return NewValidationError("hostname", selector, ReasonLabelFormat)
		}
	}
	return nil
}
