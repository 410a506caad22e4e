package listener

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	DefaultSocketName = "logdw"
	DefaultSocketDir  = "/dev/socket"

	androidSocketEnvPrefix = "ANDROID_SOCKET_"
	listenFDsStart         = 3
)

// acquireSocket adopts a socket published by the service manager under
// name, or binds a fresh one in dir when none was inherited.
func acquireSocket(dir, name string) (*net.UnixConn, error) {
	if conn, ok := inheritedSocket(name); ok {
		return conn, nil
	}
	return bindLocal(dir, name)
}

func inheritedSocket(name string) (*net.UnixConn, bool) {
	for _, lookup := range []func(string) (int, bool){androidControlSocket, systemdSocket} {
		fd, ok := lookup(name)
		if !ok {
			continue
		}
		conn, err := adopt(fd, name)
		if err != nil {
			return nil, false
		}
		return conn, true
	}
	return nil, false
}

// androidControlSocket follows the init convention of publishing the
// descriptor number in ANDROID_SOCKET_<name>.
func androidControlSocket(name string) (int, bool) {
	raw, ok := os.LookupEnv(androidSocketEnvPrefix + name)
	if !ok {
		return -1, false
	}
	fd, err := strconv.Atoi(raw)
	if err != nil || fd < 0 {
		return -1, false
	}
	return fd, true
}

// systemdSocket finds name in LISTEN_FDNAMES for sockets passed to this pid.
func systemdSocket(name string) (int, bool) {
	pid, err := strconv.Atoi(os.Getenv("LISTEN_PID"))
	if err != nil || pid != os.Getpid() {
		return -1, false
	}
	count, err := strconv.Atoi(os.Getenv("LISTEN_FDS"))
	if err != nil || count <= 0 {
		return -1, false
	}
	names := strings.Split(os.Getenv("LISTEN_FDNAMES"), ":")
	for i := 0; i < count && i < len(names); i++ {
		if names[i] == name {
			return listenFDsStart + i, true
		}
	}
	return -1, false
}

func adopt(fd int, name string) (*net.UnixConn, error) {
	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return nil, fmt.Errorf("inspect inherited socket %s: %w", name, err)
	}
	if typ != unix.SOCK_DGRAM {
		return nil, fmt.Errorf("inherited socket %s has type %d, want datagram", name, typ)
	}

	// FileConn dups the descriptor; the original is closed with f.
	f := os.NewFile(uintptr(fd), name)
	defer f.Close()

	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("adopt inherited socket %s: %w", name, err)
	}
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("inherited socket %s is not a unix socket", name)
	}
	return uc, nil
}

func bindLocal(dir, name string) (*net.UnixConn, error) {
	path := filepath.Join(dir, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}

	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", path, err)
	}

	// Any local process may write; only the daemon reads.
	if err := os.Chmod(path, 0o222); err != nil {
		conn.Close()
		return nil, fmt.Errorf("chmod %s: %w", path, err)
	}

	if err := enablePassCred(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable SO_PASSCRED on %s: %w", path, err)
	}
	return conn, nil
}

func enablePassCred(conn syscall.Conn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_PASSCRED, 1)
	}); err != nil {
		return err
	}
	return sockErr
}

func socketFD(conn any) int {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1
	}
	fd := -1
	_ = raw.Control(func(f uintptr) {
		fd = int(f)
	})
	return fd
}
