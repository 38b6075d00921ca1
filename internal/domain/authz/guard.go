package authz

// CanEditTicketWorkflow reports whether the principal may change a ticket's
// workflow fields: status, priority and assignment. Only unrestricted roles
// and the current assignee qualify; the creator alone does not.
func CanEditTicketWorkflow(principal Principal, assignedID string) bool {
	if principal.Role.Unrestricted() {
		return true
	}
	return assignedID != "" && assignedID == principal.ID
}

// TicketChangeSet is a partial ticket update. Nil fields are left alone.
type TicketChangeSet struct {
	Subject     *string
	Description *string
	Category    *string
	Department  *string
	Status      *string
	Priority    *string
	AssignedID  *string
}

// NarrowTicketChanges strips the workflow fields from a change-set when the
// principal lacks workflow rights. Disallowed fields are silently dropped
// so the rest of the update still applies.
func NarrowTicketChanges(principal Principal, assignedID string, changes TicketChangeSet) TicketChangeSet {
	if CanEditTicketWorkflow(principal, assignedID) {
		return changes
	}
	changes.Status = nil
	changes.Priority = nil
	changes.AssignedID = nil
	return changes
}
