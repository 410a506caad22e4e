package listener

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// peerCredentials walks the control messages for SCM_CREDENTIALS.
func peerCredentials(oob []byte) (*unix.Ucred, bool) {
	if len(oob) == 0 {
		return nil, false
	}
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, false
	}
	for i := range msgs {
		if msgs[i].Header.Level != unix.SOL_SOCKET || msgs[i].Header.Type != unix.SCM_CREDENTIALS {
			continue
		}
		cred, err := unix.ParseUnixCredentials(&msgs[i])
		if err != nil {
			return nil, false
		}
		return cred, true
	}
	return nil, false
}

func setThreadName(name string) {
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return
	}
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0)
	runtime.KeepAlive(p)
}
