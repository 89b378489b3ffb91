package curriculum

import "github.com/google/uuid"

// Lifecycle states for concepts and learning goals.
const (
	StatusSuggested = "suggested"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

// Lifecycle states for hierarchy suggestions.
const (
	HierarchyPending   = "pending"
	HierarchyApplied   = "applied"
	HierarchyDiscarded = "discarded"
)

// Document processing states.
const (
	DocumentUploaded  = "uploaded"
	DocumentProcessed = "processed"
)

// SystemPrincipalID owns rows suggested by the pipeline itself.
var SystemPrincipalID = uuid.Nil
