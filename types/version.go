package types

// Version is the canonical project version.
// The CLI, the report schema, and the adapter event payload share this
// version under the lockstep versioning policy.
const Version = "0.3.0"
