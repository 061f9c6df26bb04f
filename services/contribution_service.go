package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/clinisim/simulator-api/model"
	"gorm.io/gorm"
)

var (
	// ErrIllegalTransition is returned when a contributed case is moved to a
	// status its current status does not allow
	ErrIllegalTransition = errors.New("illegal workflow transition")

	// ErrNotContributor is returned when a user edits a contribution they do
	// not own
	ErrNotContributor = errors.New("user is not the contributor of this case")
)

// workflowTransitions is the authoring workflow transition table. A submitted
// case can be picked up for review or rejected outright; review ends in
// approval, rejection or a revision request back to draft; approval leads to
// publication into the catalog.
var workflowTransitions = map[model.ContributionStatus][]model.ContributionStatus{
	model.ContributionDraft:       {model.ContributionSubmitted},
	model.ContributionSubmitted:   {model.ContributionUnderReview, model.ContributionRejected, model.ContributionDraft},
	model.ContributionUnderReview: {model.ContributionApproved, model.ContributionRejected, model.ContributionDraft},
	model.ContributionApproved:    {model.ContributionPublished},
	model.ContributionPublished:   {},
	model.ContributionRejected:    {model.ContributionDraft},
}

// CanTransition reports whether the workflow allows moving from one status to
// another
func CanTransition(from, to model.ContributionStatus) bool {
	for _, allowed := range workflowTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ContributionService manages the case authoring workflow
type ContributionService struct {
	db            *gorm.DB
	notifications *NotificationService
	email         *EmailService
}

// NewContributionService creates a new contribution service
func NewContributionService(db *gorm.DB, notifications *NotificationService, email *EmailService) *ContributionService {
	return &ContributionService{db: db, notifications: notifications, email: email}
}

// CreateDraft creates a new draft contribution for an author
func (s *ContributionService) CreateDraft(ctx context.Context, draft *model.ContributedCase) error {
	draft.Status = model.ContributionDraft
	if err := s.db.WithContext(ctx).Create(draft).Error; err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	return nil
}

// UpdateDraft updates an existing draft owned by the contributor. Only drafts
// are editable; anything later in the workflow is read-only for the author.
func (s *ContributionService) UpdateDraft(ctx context.Context, contributorID, id uint, updates map[string]interface{}) (*model.ContributedCase, error) {
	var cc model.ContributedCase
	if err := s.db.WithContext(ctx).First(&cc, id).Error; err != nil {
		return nil, err
	}
	if cc.ContributorID != contributorID {
		return nil, ErrNotContributor
	}
	if cc.Status != model.ContributionDraft {
		return nil, ErrIllegalTransition
	}

	if err := s.db.WithContext(ctx).Model(&cc).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	return &cc, nil
}

// Submit moves a draft into the submitted state
func (s *ContributionService) Submit(ctx context.Context, contributorID, id uint) (*model.ContributedCase, error) {
	var cc model.ContributedCase
	if err := s.db.WithContext(ctx).First(&cc, id).Error; err != nil {
		return nil, err
	}
	if cc.ContributorID != contributorID {
		return nil, ErrNotContributor
	}
	if !CanTransition(cc.Status, model.ContributionSubmitted) {
		return nil, ErrIllegalTransition
	}

	now := time.Now()
	err := s.db.WithContext(ctx).Model(&cc).Updates(map[string]interface{}{
		"status":       model.ContributionSubmitted,
		"submitted_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to submit contribution: %w", err)
	}
	cc.Status = model.ContributionSubmitted
	cc.SubmittedAt = &now
	return &cc, nil
}

// StartReview moves a submitted case into review, recording the reviewer
func (s *ContributionService) StartReview(ctx context.Context, reviewerID, id uint) (*model.ContributedCase, error) {
	return s.transition(ctx, reviewerID, id, model.ContributionUnderReview, "")
}

// Approve marks a case approved and notifies the contributor
func (s *ContributionService) Approve(ctx context.Context, reviewerID, id uint, notes string) (*model.ContributedCase, error) {
	cc, err := s.transition(ctx, reviewerID, id, model.ContributionApproved, notes)
	if err != nil {
		return nil, err
	}
	s.notifyReviewOutcome(ctx, cc, "approved")
	return cc, nil
}

// Reject marks a case rejected and notifies the contributor
func (s *ContributionService) Reject(ctx context.Context, reviewerID, id uint, notes string) (*model.ContributedCase, error) {
	cc, err := s.transition(ctx, reviewerID, id, model.ContributionRejected, notes)
	if err != nil {
		return nil, err
	}
	s.notifyReviewOutcome(ctx, cc, "rejected")
	return cc, nil
}

// RequestRevision sends a case back to draft with reviewer notes
func (s *ContributionService) RequestRevision(ctx context.Context, reviewerID, id uint, notes string) (*model.ContributedCase, error) {
	cc, err := s.transition(ctx, reviewerID, id, model.ContributionDraft, notes)
	if err != nil {
		return nil, err
	}
	s.notifyReviewOutcome(ctx, cc, "revision_requested")
	return cc, nil
}

// Publish promotes an approved contribution into the case catalog. The
// contribution keeps a pointer to the published case.
func (s *ContributionService) Publish(ctx context.Context, reviewerID, id uint) (*model.Case, error) {
	var cc model.ContributedCase
	if err := s.db.WithContext(ctx).First(&cc, id).Error; err != nil {
		return nil, err
	}
	if !CanTransition(cc.Status, model.ContributionPublished) {
		return nil, ErrIllegalTransition
	}

	published := model.Case{
		SpecialtyID: cc.SpecialtyID,
		Title:       cc.Title,
		Summary:     cc.Summary,
		Difficulty:  cc.Difficulty,
		Template:    cc.Template,
		Published:   true,
		AuthorID:    &cc.ContributorID,
	}

	now := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&published).Error; err != nil {
			return err
		}

		if err := tx.Model(&cc).Updates(map[string]interface{}{
			"status":            model.ContributionPublished,
			"reviewed_at":       now,
			"reviewer_id":       reviewerID,
			"published_case_id": published.ID,
		}).Error; err != nil {
			return err
		}

		// Carry media attachments over to the published case
		return tx.Model(&model.CaseMedia{}).
			Where("contributed_case_id = ?", cc.ID).
			Update("case_id", published.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish contribution: %w", err)
	}

	cc.Status = model.ContributionPublished
	s.notifyReviewOutcome(ctx, &cc, "published")
	return &published, nil
}

// ListContributions lists contributions, filtered by contributor and/or status
func (s *ContributionService) ListContributions(ctx context.Context, contributorID *uint, status string, limit, offset int) ([]model.ContributedCase, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.ContributedCase{})
	if contributorID != nil {
		query = query.Where("contributor_id = ?", *contributorID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contributions: %w", err)
	}

	var contributions []model.ContributedCase
	err := query.Preload("Specialty").
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&contributions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contributions: %w", err)
	}
	return contributions, total, nil
}

func (s *ContributionService) transition(ctx context.Context, reviewerID, id uint, to model.ContributionStatus, notes string) (*model.ContributedCase, error) {
	var cc model.ContributedCase
	if err := s.db.WithContext(ctx).First(&cc, id).Error; err != nil {
		return nil, err
	}
	if !CanTransition(cc.Status, to) {
		return nil, ErrIllegalTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      to,
		"reviewed_at": now,
		"reviewer_id": reviewerID,
	}
	if notes != "" {
		updates["review_notes"] = notes
	}

	if err := s.db.WithContext(ctx).Model(&cc).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to transition contribution: %w", err)
	}
	cc.Status = to
	cc.ReviewedAt = &now
	cc.ReviewerID = &reviewerID
	if notes != "" {
		cc.ReviewNotes = notes
	}
	return &cc, nil
}

func (s *ContributionService) notifyReviewOutcome(ctx context.Context, cc *model.ContributedCase, outcome string) {
	if s.notifications == nil {
		return
	}

	notifType := model.NotificationTypeInfo
	title := "Case review update"
	switch outcome {
	case "approved", "published":
		notifType = model.NotificationTypeSuccess
		title = fmt.Sprintf("Your case %q was %s", cc.Title, outcome)
	case "rejected":
		notifType = model.NotificationTypeWarning
		title = fmt.Sprintf("Your case %q was rejected", cc.Title)
	case "revision_requested":
		title = fmt.Sprintf("Revisions requested for %q", cc.Title)
	}

	_, err := s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   cc.ContributorID,
		Type:     notifType,
		Category: model.NotificationCategoryCaseReview,
		Title:    title,
		Message:  cc.ReviewNotes,
		Metadata: &model.NotificationMetadata{
			ContributedCaseID: cc.ID,
			Status:            string(cc.Status),
		},
	})
	if err != nil {
		// Notification failure never blocks the review itself
		log.Printf("failed to create review notification: %v", err)
	}

	if s.email != nil {
		var contributor model.User
		if err := s.db.WithContext(ctx).First(&contributor, cc.ContributorID).Error; err != nil {
			log.Printf("failed to load contributor for review email: %v", err)
			return
		}
		go func(email, name, title, notes string) {
			if err := s.email.SendReviewOutcomeEmail(email, name, title, outcome, notes); err != nil {
				log.Printf("failed to send review outcome email: %v", err)
			}
		}(contributor.Email, contributor.Name, cc.Title, cc.ReviewNotes)
	}
}
