// Package security implements the gateway's SSRF guard, security response
// headers, and CORS policy (§4.6).
package security

import (
	"net"
	"net/url"
	"strings"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/logger"
)

var internalHostSuffixes = []string{".local", ".internal"}

var internalHostExact = map[string]bool{
	"localhost":                 true,
	"localhost.localdomain":     true,
	"metadata.google.internal":  true,
	"metadata.goog":             true,
	"kubernetes.default":        true,
	"kubernetes.default.svc":    true,
	"host.docker.internal":      true,
}

// ValidateBackendURL rejects any URL that could be used for
// Server-Side Request Forgery, per §4.6's scheme/host/IP rule set.
func ValidateBackendURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.NewSecurityViolationError("invalid URL", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewSecurityViolationError("URL scheme must be http or https", nil)
	}

	host := u.Hostname()
	if host == "" {
		return errors.NewSecurityViolationError("URL has no host", nil)
	}

	if ip := net.ParseIP(host); ip != nil {
		return validateIP(ip)
	}
	return validateHostname(host, u.Port())
}

func validateHostname(host, port string) error {
	lower := strings.ToLower(host)
	if internalHostExact[lower] || lower == "0.0.0.0" || strings.HasPrefix(lower, "127.") {
		return errors.NewSecurityViolationError("internal hostname is not allowed", nil)
	}
	for _, suffix := range internalHostSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return errors.NewSecurityViolationError("internal hostname is not allowed", nil)
		}
	}

	if port == "" {
		port = "80"
	}
	addrs, err := net.LookupHost(host)
	if err != nil {
		// Unresolvable hostname: allow with a logged warning, a
		// documented trade-off (§4.6).
		logger.Warnf("could not resolve hostname %q for SSRF validation, allowing", host)
		return nil
	}
	for _, a := range addrs {
		ip := net.ParseIP(a)
		if ip == nil {
			continue
		}
		if err := validateIP(ip); err != nil {
			return err
		}
	}
	return nil
}

func validateIP(ip net.IP) error {
	if v4 := ip.To4(); v4 != nil {
		return validateIPv4(v4)
	}
	return validateIPv6(ip)
}

func validateIPv4(ip net.IP) error {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return errors.NewSecurityViolationError("loopback/unspecified address is not allowed", nil)
	}
	if ip.IsPrivate() {
		return errors.NewSecurityViolationError("private IP address is not allowed", nil)
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return errors.NewSecurityViolationError("link-local address is not allowed", nil)
	}
	if ip.Equal(net.IPv4bcast) {
		return errors.NewSecurityViolationError("broadcast address is not allowed", nil)
	}

	o := ip.To4()
	isDocumentation := (o[0] == 192 && o[1] == 0 && o[2] == 2) ||
		(o[0] == 198 && o[1] == 51 && o[2] == 100) ||
		(o[0] == 203 && o[1] == 0 && o[2] == 113)
	if isDocumentation {
		return errors.NewSecurityViolationError("documentation IP range is not allowed", nil)
	}

	if o[0] == 100 && o[1] >= 64 && o[1] <= 127 {
		return errors.NewSecurityViolationError("carrier-grade NAT address is not allowed", nil)
	}
	if o[0] == 192 && o[1] == 0 && o[2] == 0 {
		return errors.NewSecurityViolationError("IETF protocol assignment address is not allowed", nil)
	}
	if o[0] == 198 && (o[1] == 18 || o[1] == 19) {
		return errors.NewSecurityViolationError("benchmarking address is not allowed", nil)
	}
	if o[0] >= 224 && o[0] <= 239 {
		return errors.NewSecurityViolationError("multicast address is not allowed", nil)
	}
	if o[0] >= 240 {
		return errors.NewSecurityViolationError("reserved address is not allowed", nil)
	}
	return nil
}

func validateIPv6(ip net.IP) error {
	if v4 := ip.To4(); v4 != nil {
		// IPv4-mapped address: recurse into the IPv4 rules (§4.6).
		return validateIPv4(v4)
	}
	if ip.IsLoopback() || ip.IsUnspecified() {
		return errors.NewSecurityViolationError("loopback/unspecified address is not allowed", nil)
	}
	if ip.IsPrivate() {
		return errors.NewSecurityViolationError("unique-local address is not allowed", nil)
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return errors.NewSecurityViolationError("link-local address is not allowed", nil)
	}
	if ip.IsMulticast() {
		return errors.NewSecurityViolationError("multicast address is not allowed", nil)
	}
	return nil
}
