// Package driver hosts checker runs over files and directories: decoding,
// fan-out, progress events, and the optional on-disk result cache. The core
// checker stays pure; everything process-shaped lives here.
package driver

import "time"

// Stage describes a high-level phase of one file's run.
type Stage string

const (
	// StageDecode is the description-document decoding stage.
	StageDecode Stage = "decode"
	// StageCheck is the validation stage.
	StageCheck Stage = "check"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is currently being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the file finished and was accepted.
	StatusDone Status = "done"
	// StatusInvalid indicates the file finished with findings.
	StatusInvalid Status = "invalid"
	// StatusError indicates the run itself failed (load, decode).
	StatusError Status = "error"
)

// Event reports progress for a file (or for the overall run when File is
// empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}
