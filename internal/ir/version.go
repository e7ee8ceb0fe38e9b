package ir

// Version constants stamped on compiled operations.
const (
	// IRVersion is the version of the compiled IR shape.
	IRVersion = "1"

	// CompilerVersion is the fieldir compiler version.
	CompilerVersion = "0.1.0"
)
