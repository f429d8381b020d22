// Package verify implements the status decision engine: the priority-ordered
// rule table that turns geofence, recognition, and mode flags into a single
// verification verdict. The engine is pure; the rule order is a contract and
// each rule is independently testable.
package verify

import "github.com/tubequest/checkin/internal/domain"

// ConfidenceThreshold is the minimum recognizer confidence accepted for an
// AI-verified check-in. A confidence of exactly this value passes.
const ConfidenceThreshold = 0.70

// Inputs is everything the engine looks at. Geofence and OCR are nil when the
// submission carried no such evidence; the engine distinguishes "absent" from
// "present and failed".
type Inputs struct {
	SimulationMode  bool
	HasConnectivity bool
	AIEnabled       bool
	Geofence        *domain.GeofenceResult
	OCR             *domain.OCRResult
}

// rule is one entry in the decision table. Rules are evaluated top to bottom;
// the first rule whose applies function returns true produces the verdict and
// short-circuits everything below it.
type rule struct {
	name    string
	applies func(in Inputs) bool
	verdict func(in Inputs) domain.Verdict
}

// rules is the decision table, highest priority first. Reordering entries
// changes observable behavior.
var rules = []rule{
	{
		// Simulation is a trusted test harness: it overrides everything,
		// including missing connectivity and failed evidence.
		name:    "simulation",
		applies: func(in Inputs) bool { return in.SimulationMode },
		verdict: func(Inputs) domain.Verdict {
			return verified(domain.MethodSimulation)
		},
	},
	{
		name:    "no_connectivity",
		applies: func(in Inputs) bool { return !in.HasConnectivity },
		verdict: func(Inputs) domain.Verdict {
			return pending(domain.ReasonNoConnectivity, domain.MethodOffline)
		},
	},
	{
		// Manual check-ins are trusted by design; geofence and recognition
		// failures are ignored in this mode.
		name:    "manual",
		applies: func(in Inputs) bool { return !in.AIEnabled },
		verdict: func(Inputs) domain.Verdict {
			return verified(domain.MethodManual)
		},
	},
	{
		name: "geofence_failed",
		applies: func(in Inputs) bool {
			return in.Geofence != nil && !in.Geofence.WithinRadius
		},
		verdict: func(in Inputs) domain.Verdict {
			if in.Geofence.Source == domain.SourceNone {
				return pending(domain.ReasonNoGPSData, domain.MethodAIImage)
			}
			return pending(domain.ReasonGeofenceFailed, domain.MethodAIImage)
		},
	},
	{
		name: "ocr_failed",
		applies: func(in Inputs) bool {
			return in.OCR != nil && !in.OCR.Success
		},
		verdict: func(Inputs) domain.Verdict {
			return pending(domain.ReasonOCRFailed, domain.MethodAIImage)
		},
	},
	{
		name: "low_confidence",
		applies: func(in Inputs) bool {
			return in.OCR != nil && in.OCR.Confidence < ConfidenceThreshold
		},
		verdict: func(Inputs) domain.Verdict {
			return pending(domain.ReasonLowConfidence, domain.MethodAIImage)
		},
	},
	{
		name:    "default",
		applies: func(Inputs) bool { return true },
		verdict: func(in Inputs) domain.Verdict {
			if in.OCR != nil {
				return verified(domain.MethodAIImage)
			}
			return verified(domain.MethodGPS)
		},
	},
}

// Decide evaluates the decision table against in and returns the verdict of
// the first applicable rule. Total: the final default rule always applies.
func Decide(in Inputs) domain.Verdict {
	for _, r := range rules {
		if r.applies(in) {
			return r.verdict(in)
		}
	}
	// Unreachable: the default rule always applies.
	return verified(domain.MethodGPS)
}

func verified(m domain.VerificationMethod) domain.Verdict {
	return domain.Verdict{Status: domain.StatusVerified, Method: m}
}

func pending(reason domain.PendingReason, m domain.VerificationMethod) domain.Verdict {
	return domain.Verdict{Status: domain.StatusPending, PendingReason: &reason, Method: m}
}
