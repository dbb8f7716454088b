// File: socket/address.go
// Author: momentics <momentics@gmail.com>
//
// Address resolution and conversion between Go's net.TCPAddr/net.UDPAddr and
// the unix.Sockaddr values the raw syscalls need. Kept separate from the
// socket variants so Channel/Acceptor/Datagram stay focused on state
// machines, not sockaddr plumbing.
package socket

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/solidframe-go/api"
)

// ResolveTCP parses "host:port" into a *net.TCPAddr, surfacing failures as
// api.ErrAddressError (spec §7).
func ResolveTCP(address string) (*net.TCPAddr, error) {
	addr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeAddressError, "socket: resolve tcp address", err)
	}
	return addr, nil
}

// ResolveUDP parses "host:port" into a *net.UDPAddr.
func ResolveUDP(address string) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeAddressError, "socket: resolve udp address", err)
	}
	return addr, nil
}

func tcpToSockaddr(addr *net.TCPAddr) (unix.Sockaddr, error) {
	if addr == nil {
		return &unix.SockaddrInet4{}, nil
	}
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	ip16 := addr.IP.To16()
	if ip16 == nil {
		return nil, api.NewError(api.ErrCodeAddressError, "socket: unresolvable tcp address")
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], ip16)
	return sa, nil
}

func udpToSockaddr(addr *net.UDPAddr) (unix.Sockaddr, error) {
	if addr == nil {
		return &unix.SockaddrInet4{}, nil
	}
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	ip16 := addr.IP.To16()
	if ip16 == nil {
		return nil, api.NewError(api.ErrCodeAddressError, "socket: unresolvable udp address")
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], ip16)
	return sa, nil
}

func sockaddrToUDP(sa unix.Sockaddr) *net.UDPAddr {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, s.Addr[:])
		return &net.UDPAddr{IP: ip, Port: s.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, s.Addr[:])
		return &net.UDPAddr{IP: ip, Port: s.Port}
	default:
		return nil
	}
}
