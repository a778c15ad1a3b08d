package proof

// Version constants for the verifier and the artifact schema it accepts.
const (
	// VerifierVersion is the proofcheck verifier version.
	VerifierVersion = "0.1.0"

	// SchemaVersion is the version of the published proof schema description.
	SchemaVersion = "1"
)
