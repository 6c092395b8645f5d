package workflow

import "errors"

// ErrNodeNotFound is returned by Store.UpdateConfig when the node ID does not
// resolve to an existing node. Removal operations are idempotent no-ops
// instead, to keep the collaborator event stream simple.
var ErrNodeNotFound = errors.New("workflow: node not found")
