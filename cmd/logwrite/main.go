// Command logwrite sends one record to the logd write socket, framed the
// way a cooperating writer library would.
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emresahna/logd/internal/listener"
	"github.com/emresahna/logd/internal/logparse"
	"github.com/emresahna/logd/internal/model"
	"github.com/spf13/pflag"
)

func main() {
	socket := pflag.StringP("socket", "s", filepath.Join(listener.DefaultSocketDir, listener.DefaultSocketName), "path of the write socket")
	id := pflag.StringP("buffer", "b", "main", "log buffer name or id")
	tag := pflag.StringP("tag", "t", "logwrite", "record tag")
	priority := pflag.Uint8P("priority", "p", logparse.PriorityInfo, "record priority")
	pflag.Parse()

	logID, ok := model.ParseLogID(*id)
	if !ok {
		log.Fatalf("unknown log buffer %q", *id)
	}

	data, err := frame(logID, uint16(os.Getpid()), time.Now(), *priority, *tag, strings.Join(pflag.Args(), " "))
	if err != nil {
		log.Fatalf("frame record: %v", err)
	}

	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: *socket, Net: "unixgram"})
	if err != nil {
		log.Fatalf("dial %s: %v", *socket, err)
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		log.Fatalf("write: %v", err)
	}
}

// frame builds header + prio tag\0 message\0.
func frame(id model.LogID, tid uint16, now time.Time, priority uint8, tag, msg string) ([]byte, error) {
	if id.Binary() {
		return nil, fmt.Errorf("%s carries binary events, not text", id)
	}
	if strings.IndexByte(tag, 0) >= 0 {
		return nil, fmt.Errorf("tag contains a NUL byte")
	}

	payload := make([]byte, 0, len(tag)+len(msg)+3)
	payload = append(payload, priority)
	payload = append(payload, tag...)
	payload = append(payload, 0)
	payload = append(payload, msg...)
	payload = append(payload, 0)
	if len(payload) > model.MaxPayload {
		payload = payload[:model.MaxPayload]
		payload[len(payload)-1] = 0
	}

	b := model.AppendHeader(make([]byte, 0, model.HeaderSize+len(payload)), model.Header{
		ID:       id,
		TID:      tid,
		Realtime: model.LogTimeOf(now),
	})
	return append(b, payload...), nil
}
