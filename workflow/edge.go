package workflow

// Edge is a directed connection between two nodes. Its ID is deterministic
// from the endpoint pair, so edge uniqueness follows from node ID uniqueness.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// EdgeID builds the deterministic edge identifier for a source/target pair.
func EdgeID(sourceID, targetID string) string {
	return sourceID + "-" + targetID
}
