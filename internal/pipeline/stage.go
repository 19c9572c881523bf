package pipeline

// Stage is a state of the orchestrator.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageFetching   Stage = "fetching"
	StageExtracting Stage = "extracting"
	StageAnalyzing  Stage = "analyzing"
	StageComposing  Stage = "composing"
	StageInvokingAI Stage = "invoking-ai"
	StageSanitizing Stage = "sanitizing"
	StageDelivering Stage = "delivering"
	StageFailed     Stage = "failed"
)

// Label returns a short progress label for the stage.
func (s Stage) Label() string {
	switch s {
	case StageIdle:
		return "Done"
	case StageFetching:
		return "Reading the message"
	case StageExtracting:
		return "Saving attachments"
	case StageAnalyzing:
		return "Summarizing attachments"
	case StageComposing:
		return "Composing the prompt"
	case StageInvokingAI:
		return "Waiting for the AI"
	case StageSanitizing:
		return "Cleaning up the answer"
	case StageDelivering:
		return "Creating the reply draft"
	case StageFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// Observer is notified of every stage transition.
type Observer func(Stage)
