package authz

import "testing"

func strptr(s string) *string { return &s }

func TestCanEditTicketWorkflow(t *testing.T) {
	cases := []struct {
		name       string
		principal  Principal
		assignedID string
		want       bool
	}{
		{"admin", admin, "", true},
		{"hr", hrUser, "", true},
		{"assignee", employee, employee.ID, true},
		{"creator only", employee, "u-other", false},
		{"lead not assigned", lead, "u-other", false},
		{"unassigned", employee, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanEditTicketWorkflow(tc.principal, tc.assignedID); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNarrowTicketChangesStripsWorkflowFields(t *testing.T) {
	changes := TicketChangeSet{
		Subject:    strptr("new subject"),
		Status:     strptr("Resolved"),
		Priority:   strptr("High"),
		AssignedID: strptr("u-other"),
	}

	narrowed := NarrowTicketChanges(employee, "u-other", changes)
	if narrowed.Status != nil || narrowed.Priority != nil || narrowed.AssignedID != nil {
		t.Fatalf("workflow fields should be stripped, got %+v", narrowed)
	}
	if narrowed.Subject == nil || *narrowed.Subject != "new subject" {
		t.Fatalf("content fields should survive, got %+v", narrowed)
	}
}

func TestNarrowTicketChangesKeepsFieldsForAssignee(t *testing.T) {
	changes := TicketChangeSet{Status: strptr("Resolved")}

	narrowed := NarrowTicketChanges(employee, employee.ID, changes)
	if narrowed.Status == nil || *narrowed.Status != "Resolved" {
		t.Fatalf("assignee should keep workflow fields, got %+v", narrowed)
	}
}
