// Package policy decides who may write to the security log.
package policy

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/emresahna/logd/internal/model"
)

// SecurityPolicy gates records on the security channel. Both predicates
// must be cheap and free of side effects; they run on the receive path.
type SecurityPolicy interface {
	Enabled() bool
	PeerAuthorized(uid, gid, pid uint32) bool
}

// Funcs adapts a pair of functions to SecurityPolicy. A nil field answers false.
type Funcs struct {
	EnabledFunc        func() bool
	PeerAuthorizedFunc func(uid, gid, pid uint32) bool
}

func (f Funcs) Enabled() bool {
	return f.EnabledFunc != nil && f.EnabledFunc()
}

func (f Funcs) PeerAuthorized(uid, gid, pid uint32) bool {
	return f.PeerAuthorizedFunc != nil && f.PeerAuthorizedFunc(uid, gid, pid)
}

// Deny rejects every security record.
var Deny SecurityPolicy = Funcs{}

// Host is the default policy: a global switch plus the log-credential
// check performed against the peer's ids and supplementary groups.
type Host struct {
	enabled  bool
	procRoot string
}

func NewHost(enabled bool) *Host {
	return &Host{enabled: enabled, procRoot: "/proc"}
}

func (h *Host) Enabled() bool {
	return h.enabled
}

func (h *Host) PeerAuthorized(uid, gid, pid uint32) bool {
	if privileged(uid) || privileged(gid) {
		return true
	}
	return h.inLogGroup(uid, gid, pid)
}

func privileged(id uint32) bool {
	return id == model.AIDRoot || id == model.AIDSystem || id == model.AIDLog
}

// inLogGroup reports whether /proc/<pid>/status lists the log group among the
// supplementary groups. The Uid and Gid lines must name the credentials the
// kernel passed, otherwise the pid was reused by another process. A process
// that exited before the lookup is treated as unauthorized.
func (h *Host) inLogGroup(uid, gid, pid uint32) bool {
	f, err := os.Open(filepath.Join(h.procRoot, strconv.FormatUint(uint64(pid), 10), "status"))
	if err != nil {
		return false
	}
	defer f.Close()

	var uidOK, gidOK, groupOK bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		switch key {
		case "Uid":
			uidOK = containsID(rest, uid)
		case "Gid":
			gidOK = containsID(rest, gid)
		case "Groups":
			groupOK = containsID(rest, model.AIDLog)
		}
	}
	return uidOK && gidOK && groupOK
}

// containsID reports whether the whitespace separated id list holds id.
func containsID(list string, id uint32) bool {
	for _, field := range strings.Fields(list) {
		n, err := strconv.ParseUint(field, 10, 32)
		if err == nil && uint32(n) == id {
			return true
		}
	}
	return false
}
