package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestChangeReason(t *testing.T) {
	assert.Equal(t, "Status updated by admin", ChangeReason("admin", ""))
	assert.Equal(t, "Status updated by admin", ChangeReason("admin", "   "))
	assert.Equal(t, "Status updated by reviewer@example.com: Missing trainers", ChangeReason("reviewer@example.com", "Missing trainers"))
}

func TestFromEvent(t *testing.T) {
	tenantID := uuid.New()
	orgID := uuid.New()
	statusID := uuid.New()
	e := shared.NewApprovalChangedEvent("CertifyingOrganisation", orgID, tenantID,
		shared.ApprovalPending, shared.ApprovalRejected, &statusID, "admin", "No website")

	change := FromEvent(e, "Rejected")

	assert.Equal(t, tenantID, change.TenantID)
	assert.Equal(t, orgID, change.AggregateID)
	assert.Equal(t, "CertifyingOrganisation", change.AggregateType)
	assert.Equal(t, shared.ApprovalPending, change.FromState)
	assert.Equal(t, shared.ApprovalRejected, change.ToState)
	assert.Equal(t, &statusID, change.StatusID)
	assert.Equal(t, "Rejected", change.StatusName)
	assert.Equal(t, "Status updated by admin: No website", change.ChangeReason)
}
