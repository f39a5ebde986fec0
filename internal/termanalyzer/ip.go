package termanalyzer

import "net/netip"

// validAddr and validCIDR are backed by net/netip rather than a
// third-party library: none of the example pack's dependency graphs
// (ClickHouse, AWS SDK, bleve, pgx, NATS, Redis, gorm/OData) carry an IP
// address parser of their own, so the standard library's own address
// type — added in Go 1.18 specifically to replace ad-hoc net.IP
// handling — is the only option actually grounded anywhere in the pack.
func validAddr(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

func validCIDR(s string) bool {
	_, err := netip.ParsePrefix(s)
	return err == nil
}
