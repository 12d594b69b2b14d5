package conn

import (
	"net"
	"net/netip"
)

// Address families reported by AddrInfo.
const (
	FamilyIPv4 = "IPv4"
	FamilyIPv6 = "IPv6"
)

// AddrInfo is a socket address split into its parts.
type AddrInfo struct {
	Address string `json:"address"`
	Family  string `json:"family"`
	Port    uint16 `json:"port"`
}

// NewAddrInfo converts addr. Addresses that are not IP based yield the zero
// AddrInfo with Address set to addr.String().
func NewAddrInfo(addr net.Addr) AddrInfo {
	if addr == nil {
		return AddrInfo{}
	}

	var ap netip.AddrPort
	switch a := addr.(type) {
	case *net.TCPAddr:
		ap = a.AddrPort()
	default:
		parsed, err := netip.ParseAddrPort(addr.String())
		if err != nil {
			return AddrInfo{Address: addr.String()}
		}
		ap = parsed
	}

	ip := ap.Addr()
	info := AddrInfo{Port: ap.Port()}
	if ip.Is4() || ip.Is4In6() {
		info.Family = FamilyIPv4
		info.Address = ip.Unmap().String()
	} else {
		info.Family = FamilyIPv6
		info.Address = ip.String()
	}
	return info
}
