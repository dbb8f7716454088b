//go:build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
//
// epollPoller implements osPoller on top of Linux epoll, level-triggered,
// with an eventfd used purely to interrupt a blocked Wait from another
// goroutine (spec §4.6 "the reactor thread may be woken early by a posted
// event"). The eventfd wake mechanism is grounded on
// joeycumines-go-utilpkg/eventloop/wakeup_linux.go; unlike the teacher's
// reactor/reactor_linux.go, events carry only the fd, which the Reactor maps
// to its *CompletionHandler through its deviceHandlers map, instead of
// packing a uintptr into unix.EpollEvent.Pad (Pad is 4 bytes on amd64 and
// cannot safely hold a pointer-sized value).
package reactor

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/solidframe-go/api"
)

type epollPoller struct {
	epfd   int
	wakeFd int
}

func newOSPoller() (osPoller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeInternal, "reactor: epoll_create1 failed", err)
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, api.WrapError(api.ErrCodeInternal, "reactor: eventfd failed", err)
	}
	p := &epollPoller{epfd: epfd, wakeFd: wakeFd}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakeFd),
	}); err != nil {
		_ = unix.Close(wakeFd)
		_ = unix.Close(epfd)
		return nil, api.WrapError(api.ErrCodeInternal, "reactor: epoll_ctl(wakeFd) failed", err)
	}
	return p, nil
}

func toEpollEvents(mask api.InterestMask) uint32 {
	var ev uint32
	if mask.Readable() {
		ev |= unix.EPOLLIN
	}
	if mask.Writable() {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) Add(fd int, mask api.InterestMask) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: toEpollEvents(mask),
		Fd:     int32(fd),
	})
	if err != nil {
		return api.WrapError(api.ErrCodeInternal, "reactor: epoll_ctl(ADD) failed", err)
	}
	return nil
}

func (p *epollPoller) Modify(fd int, mask api.InterestMask) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: toEpollEvents(mask),
		Fd:     int32(fd),
	})
	if err != nil {
		return api.WrapError(api.ErrCodeInternal, "reactor: epoll_ctl(MOD) failed", err)
	}
	return nil
}

func (p *epollPoller) Remove(fd int) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err != nil {
		return api.WrapError(api.ErrCodeInternal, "reactor: epoll_ctl(DEL) failed", err)
	}
	return nil
}

func (p *epollPoller) Wait(timeout time.Duration, out []readinessEvent) (int, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	raw := make([]unix.EpollEvent, len(out))
	n, err := unix.EpollWait(p.epfd, raw, ms)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, api.WrapError(api.ErrCodeInternal, "reactor: epoll_wait failed", err)
	}

	count := 0
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == p.wakeFd {
			drainEventfd(p.wakeFd)
			continue
		}
		out[count] = readinessEvent{FD: fd, Mask: fromEpollEvents(raw[i].Events)}
		count++
	}
	return count, nil
}

func fromEpollEvents(events uint32) api.ReadinessMask {
	var m api.ReadinessMask
	if events&unix.EPOLLIN != 0 {
		m |= api.ReadinessRead
	}
	if events&unix.EPOLLOUT != 0 {
		m |= api.ReadinessWrite
	}
	if events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		m |= api.ReadinessHangup
	}
	if events&unix.EPOLLERR != 0 {
		m |= api.ReadinessError
	}
	return m
}

func drainEventfd(fd int) {
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err != nil {
			return
		}
	}
}

func (p *epollPoller) Wake() error {
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(p.wakeFd, one[:])
	if err != nil && err != unix.EAGAIN {
		return api.WrapError(api.ErrCodeInternal, "reactor: eventfd write failed", err)
	}
	return nil
}

func (p *epollPoller) Close() error {
	_ = unix.Close(p.wakeFd)
	return unix.Close(p.epfd)
}
