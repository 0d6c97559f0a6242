package world

// Stage names a step of a long-running terrain operation.
type Stage string

const (
	StageShaping   Stage = "shaping"
	StageMountains Stage = "mountains"
	StageValleys   Stage = "valleys"
	StageLakes     Stage = "lakes"
	StageErosion   Stage = "erosion"
	StageRivers    Stage = "rivers"
	StageFinalize  Stage = "finalize"

	// Used by hydrology and weathering passes.
	StagePrepare Stage = "prepare"
	StageFlow    Stage = "flow"
)

// Progress receives a stage and overall completion in [0,1]. It is called
// synchronously from the operation's goroutine.
type Progress func(stage Stage, fraction float32)

func (p Progress) report(stage Stage, fraction float32) {
	if p != nil {
		p(stage, fraction)
	}
}
