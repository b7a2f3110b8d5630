package workflow

import "video-transcriber/internal/domain"

// Status labels shown to the user, one per phase.
const (
	LabelWaiting    = "waiting"
	LabelConverting = "converting"
	LabelUploading  = "uploading"
	LabelGenerating = "generating"
	LabelSuccess    = "success"
)

// ErrorKind classifies the step a run failed in.
type ErrorKind string

const (
	KindConversion           ErrorKind = "conversion"
	KindSubmission           ErrorKind = "submission"
	KindTranscriptionRequest ErrorKind = "transcription_request"
)

// Label maps a phase onto the user-facing status vocabulary.
func Label(phase domain.Phase) string {
	switch phase {
	case domain.PhaseConverting:
		return LabelConverting
	case domain.PhaseUploading:
		return LabelUploading
	case domain.PhaseTranscribing:
		return LabelGenerating
	case domain.PhaseCompleted:
		return LabelSuccess
	default:
		return LabelWaiting
	}
}

// kindFor names the failure of a step running in phase.
func kindFor(phase domain.Phase) ErrorKind {
	switch phase {
	case domain.PhaseUploading:
		return KindSubmission
	case domain.PhaseTranscribing:
		return KindTranscriptionRequest
	default:
		return KindConversion
	}
}

// isStep reports whether the phase has a step in flight.
func isStep(phase domain.Phase) bool {
	switch phase {
	case domain.PhaseConverting, domain.PhaseUploading, domain.PhaseTranscribing:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the strictly forward phase edges.
func isValidTransition(from, to domain.Phase) bool {
	switch from {
	case domain.PhaseIdle:
		return to == domain.PhaseConverting
	case domain.PhaseConverting:
		return to == domain.PhaseUploading
	case domain.PhaseUploading:
		return to == domain.PhaseTranscribing
	case domain.PhaseTranscribing:
		return to == domain.PhaseCompleted
	default:
		return false
	}
}
