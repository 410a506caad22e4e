package model

import "strconv"

// LogID names one of the logical log channels a writer can address.
type LogID uint8

const (
	LogIDMain     LogID = 0
	LogIDRadio    LogID = 1
	LogIDEvents   LogID = 2
	LogIDSystem   LogID = 3
	LogIDCrash    LogID = 4
	LogIDStats    LogID = 5
	LogIDSecurity LogID = 6
	LogIDKernel   LogID = 7

	// LogIDMax is one past the last valid id.
	LogIDMax LogID = 8
)

var logIDNames = [LogIDMax]string{
	LogIDMain:     "main",
	LogIDRadio:    "radio",
	LogIDEvents:   "events",
	LogIDSystem:   "system",
	LogIDCrash:    "crash",
	LogIDStats:    "stats",
	LogIDSecurity: "security",
	LogIDKernel:   "kernel",
}

// Valid reports whether id is inside the enumeration.
func (id LogID) Valid() bool {
	return id < LogIDMax
}

// Binary reports whether records on this channel carry a binary event
// payload rather than priority/tag/message text.
func (id LogID) Binary() bool {
	return id == LogIDEvents || id == LogIDStats || id == LogIDSecurity
}

func (id LogID) String() string {
	if !id.Valid() {
		return "unknown(" + strconv.Itoa(int(id)) + ")"
	}
	return logIDNames[id]
}

// ParseLogID resolves a channel name or numeric id.
func ParseLogID(s string) (LogID, bool) {
	for i, name := range logIDNames {
		if name == s {
			return LogID(i), true
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || !LogID(n).Valid() {
		return 0, false
	}
	return LogID(n), true
}
