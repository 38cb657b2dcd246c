package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{TicketStatusDraft, TicketStatusPendingReview, true},
		{TicketStatusPendingReview, TicketStatusApprovedForDispatch, true},
		{TicketStatusPendingReview, TicketStatusReviewFailed, true},
		{TicketStatusApprovedForDispatch, TicketStatusDispatchSucceeded, true},
		{TicketStatusApprovedForDispatch, TicketStatusDispatchFailed, true},

		// Resubmission after failure
		{TicketStatusReviewFailed, TicketStatusPendingReview, true},
		{TicketStatusDispatchFailed, TicketStatusPendingReview, true},

		// No step skipping
		{TicketStatusDraft, TicketStatusApprovedForDispatch, false},
		{TicketStatusDraft, TicketStatusDispatchSucceeded, false},
		{TicketStatusPendingReview, TicketStatusDispatchSucceeded, false},
		{TicketStatusReviewFailed, TicketStatusApprovedForDispatch, false},

		// Success is terminal
		{TicketStatusDispatchSucceeded, TicketStatusPendingReview, false},
		{TicketStatusDispatchSucceeded, TicketStatusApprovedForDispatch, false},

		// No backwards moves
		{TicketStatusApprovedForDispatch, TicketStatusPendingReview, false},
		{TicketStatusPendingReview, TicketStatusDraft, false},
		{TicketStatusDispatchFailed, TicketStatusApprovedForDispatch, false},

		// Unknown statuses
		{"nonexistent", TicketStatusPendingReview, false},
		{TicketStatusDraft, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}
