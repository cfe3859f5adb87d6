package ledger

import "fmt"

// Submission is the state machine for one content-verification attempt. The
// reward is reserved into the owner's pending balance at creation and leaves
// pending exactly once, on resolution.
type Submission struct {
	id         SubmissionID
	userID     UserID
	campaignID CampaignID
	reward     PositiveAmountCents
	status     SubmissionStatus
	resolvedBy AdminID
}

// NewSubmission creates a submission in pending (or viral_claim) state.
func NewSubmission(id SubmissionID, userID UserID, campaignID CampaignID, reward PositiveAmountCents, viralClaim bool) Submission {
	status := SubmissionStatusPending
	if viralClaim {
		status = SubmissionStatusViralClaim
	}
	return Submission{
		id:         id,
		userID:     userID,
		campaignID: campaignID,
		reward:     reward,
		status:     status,
	}
}

// RehydrateSubmission rebuilds a submission from stored fields.
func RehydrateSubmission(id SubmissionID, userID UserID, campaignID CampaignID, rewardCents int64, status SubmissionStatus, resolvedBy string) (Submission, error) {
	reward, err := NewPositiveAmountCents(rewardCents)
	if err != nil {
		return Submission{}, err
	}
	submission := Submission{
		id:         id,
		userID:     userID,
		campaignID: campaignID,
		reward:     reward,
		status:     status,
	}
	if resolvedBy != "" {
		adminID, err := NewAdminID(resolvedBy)
		if err != nil {
			return Submission{}, err
		}
		submission.resolvedBy = adminID
	}
	return submission, nil
}

// ID returns the submission identifier.
func (submission Submission) ID() SubmissionID {
	return submission.id
}

// UserID returns the owning account key.
func (submission Submission) UserID() UserID {
	return submission.userID
}

// CampaignID returns the campaign the submission was made for.
func (submission Submission) CampaignID() CampaignID {
	return submission.campaignID
}

// RewardCents returns the immutable reward amount.
func (submission Submission) RewardCents() PositiveAmountCents {
	return submission.reward
}

// Status returns the current lifecycle state.
func (submission Submission) Status() SubmissionStatus {
	return submission.status
}

// ResolvedBy returns the admin that resolved the submission, if terminal.
func (submission Submission) ResolvedBy() AdminID {
	return submission.resolvedBy
}

// IsViralClaim reports whether the submission requests the bonus tier.
func (submission Submission) IsViralClaim() bool {
	return submission.status == SubmissionStatusViralClaim
}

// Approve moves the submission to its approved terminal state.
func (submission *Submission) Approve(adminID AdminID) error {
	if !submission.status.IsOpen() {
		return fmt.Errorf("%w: submission %s is %s", ErrAlreadyResolved, submission.id.String(), submission.status)
	}
	submission.status = SubmissionStatusApproved
	submission.resolvedBy = adminID
	return nil
}

// Reject moves the submission to its rejected terminal state.
func (submission *Submission) Reject(adminID AdminID) error {
	if !submission.status.IsOpen() {
		return fmt.Errorf("%w: submission %s is %s", ErrAlreadyResolved, submission.id.String(), submission.status)
	}
	submission.status = SubmissionStatusRejected
	submission.resolvedBy = adminID
	return nil
}
