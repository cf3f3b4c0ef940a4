package collections

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"
)

const connectionAvailableDuration = 250 * time.Millisecond

// WaitForConnectionAvailable dials a tcp connection every 250 milliseconds
// until it connects and returns true.  If it fails to connect by the timeout
// deadline, returns false.
func WaitForConnectionAvailable(host string, port int, timeout time.Duration, progress bool) bool {
	target := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var dialer net.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "tcp", target)
		if err == nil {
			conn.Close()
			return true
		}
		if progress {
			log.Println(err)
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(connectionAvailableDuration):
		}
	}
}

// GetFreePort asks the kernel for a free open port that is ready to use.
func GetFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
