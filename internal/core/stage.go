package core

// Stage is the state of a Session.
//
//	Idle → Rotating → Capturing → (Diffing | ReportingDirect) → Reported → Done
type Stage int

const (
	StageIdle Stage = iota
	StageRotating
	StageCapturing
	StageDiffing
	StageReportingDirect
	StageReported
	StageDone
)

var stageNames = [...]string{
	StageIdle:            "idle",
	StageRotating:        "rotating",
	StageCapturing:       "capturing",
	StageDiffing:         "diffing",
	StageReportingDirect: "reporting",
	StageReported:        "reported",
	StageDone:            "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DiffStatus is the diff stage outcome of one job.
type DiffStatus string

const (
	DiffPending   DiffStatus = ""
	DiffSkipped   DiffStatus = "skipped"   // baseline or capture missing
	DiffGenerated DiffStatus = "generated" // composite exited cleanly
	DiffFailed    DiffStatus = "failed"
)
