package domain

// UpdateRequest is a single request to point a firewall at a new address.
// It lives only for the duration of one HTTP request.
type UpdateRequest struct {
	CallerIP     string
	Hostname     string
	IP           string
	ProviderName string
	Token        string
}

// ResolvedFirewall identifies a firewall on the remote provider after the
// requested identifier has been resolved.
type ResolvedFirewall struct {
	ID   string
	Name string
}

// SourceCIDR returns the single-host CIDR written into inbound rules.
func SourceCIDR(ip string) string {
	return ip + "/32"
}
