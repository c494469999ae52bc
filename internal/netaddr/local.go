// Package netaddr finds the address other hosts on the LAN can reach us at.
package netaddr

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackpal/gateway"
)

var ErrNoLocalAddress = errors.New("no non-loopback local address found")

// Interface is the subset of net.Interface used for address selection.
type Interface struct {
	Name  string
	Up    bool
	Addrs []net.Addr
}

// Discoverer locates the local address. The zero value uses the host's
// interfaces and default gateway.
type Discoverer struct {
	Interfaces func() ([]Interface, error)
	Gateway    func() (net.IP, error)
}

// LocalIP returns the host's primary non-loopback address using the default
// Discoverer.
func LocalIP() (net.IP, error) {
	return (&Discoverer{}).LocalIP()
}

// LocalIP prefers the address on the subnet of the default gateway. Without a
// usable gateway it falls back to the first global unicast IPv4 address, then
// IPv6. It never returns a loopback or link-local address.
func (d *Discoverer) LocalIP() (net.IP, error) {
	listIfaces := d.Interfaces
	if listIfaces == nil {
		listIfaces = systemInterfaces
	}
	discoverGateway := d.Gateway
	if discoverGateway == nil {
		discoverGateway = gateway.DiscoverGateway
	}

	ifaces, err := listIfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve network interfaces: %w", err)
	}

	// a missing default route is not fatal; the interface scan still runs
	gw, _ := discoverGateway()

	if ip := pickAddress(ifaces, gw); ip != nil {
		return ip, nil
	}
	return nil, ErrNoLocalAddress
}

func pickAddress(ifaces []Interface, gw net.IP) net.IP {
	var v4, v6 net.IP

	for _, iface := range ifaces {
		if !iface.Up {
			continue
		}
		for _, addr := range iface.Addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP
			if !ip.IsGlobalUnicast() || ip.IsLoopback() {
				continue
			}

			if ip4 := ip.To4(); ip4 != nil {
				if gw != nil && ipnet.Contains(gw) {
					return ip4
				}
				if v4 == nil {
					v4 = ip4
				}
				continue
			}

			if gw != nil && gw.To4() == nil && ipnet.Contains(gw) {
				return ip
			}
			if v6 == nil {
				v6 = ip
			}
		}
	}

	if v4 != nil {
		return v4
	}
	return v6
}

func systemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	result := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			// one broken interface should not hide the others
			continue
		}
		result = append(result, Interface{
			Name:  iface.Name,
			Up:    iface.Flags&net.FlagUp != 0,
			Addrs: addrs,
		})
	}
	return result, nil
}
