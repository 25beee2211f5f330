package claims

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/internal/platform/blobstore"
	"github.com/claimease/claimease/internal/platform/db"
	"github.com/claimease/claimease/internal/platform/metrics"
	"github.com/claimease/claimease/pkg/civil"
)

// maxNumberAttempts bounds claim_number collision retries per submission.
const maxNumberAttempts = 5

const maxDocumentTypeLen = 50

// Service is the claims lifecycle engine: submission, ownership-checked
// reads, document upload and back-office adjudication.
type Service struct {
	repo    Repository
	tx      db.Transactor
	blobs   blobstore.Store
	uploads blobstore.Policy
	numbers *NumberGenerator
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, tx db.Transactor, blobs blobstore.Store, uploads blobstore.Policy, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		blobs:   blobs,
		uploads: uploads,
		numbers: NewNumberGenerator(time.Now, time.UTC),
		logger:  logger.With().Str("component", "claims").Logger(),
		now:     time.Now,
	}
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// PrimeNumbers moves the claim-number generator past the highest number
// already stored, so a restart within the same second cannot reissue it.
func (s *Service) PrimeNumbers(ctx context.Context) error {
	latest, err := s.repo.LatestClaimNumber(ctx)
	if err != nil {
		return db.Translate(err, "could not read claim numbers")
	}
	s.numbers.Observe(latest)
	return nil
}

func roundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

var errClaimNotFound = apperr.New(apperr.KindNotFound, "claim not found")

// SubmitClaim validates req, snapshots the caller's policy and persists a
// Pending claim under a fresh claim number.
func (s *Service) SubmitClaim(ctx context.Context, userID int64, req SubmitRequest) (*Claim, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var claim *Claim
	for attempt := 1; ; attempt++ {
		c := &Claim{
			ClaimNumber:      s.numbers.Next(),
			UserID:           userID,
			HospitalID:       *req.HospitalID,
			ClaimType:        ClaimType(req.ClaimType),
			TreatmentType:    strings.TrimSpace(req.TreatmentType),
			AdmissionDate:    req.AdmissionDate,
			DischargeDate:    req.DischargeDate,
			ClaimDate:        s.now().UTC(),
			Status:           StatusPending,
			ClaimAmount:      roundAmount(*req.ClaimAmount),
			Diagnosis:        strings.TrimSpace(req.Diagnosis),
			TreatmentDetails: req.TreatmentDetails,
			DoctorName:       req.DoctorName,
			RoomType:         req.RoomType,
			IsEmergency:      req.IsEmergency,
		}

		err := s.tx.InTx(ctx, func(ctx context.Context) error {
			return s.insertClaim(ctx, c)
		})
		if err == nil {
			claim = c
			break
		}
		if !errors.Is(err, ErrDuplicateClaimNumber) {
			return nil, db.Translate(err, "could not submit claim")
		}
		if s.metrics != nil {
			s.metrics.ClaimNumberRetry.Inc()
		}
		s.logger.Warn().Str("claim_number", c.ClaimNumber).Int("attempt", attempt).Msg("claim number collision, retrying")
		if attempt >= maxNumberAttempts {
			return nil, apperr.Wrap(err, apperr.KindInternal, "could not allocate a claim number, retry later")
		}
	}

	if s.metrics != nil {
		s.metrics.ClaimsSubmitted.WithLabelValues(string(claim.ClaimType)).Inc()
	}
	s.logger.Info().
		Int64("user_id", userID).
		Int64("claim_id", claim.ClaimID).
		Str("claim_number", claim.ClaimNumber).
		Msg("claim submitted")
	return claim, nil
}

// insertClaim runs inside the submission transaction.
func (s *Service) insertClaim(ctx context.Context, c *Claim) error {
	policy, err := s.repo.UserPolicy(ctx, c.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return apperr.New(apperr.KindUnauthenticated, "account no longer exists")
	}
	if err != nil {
		return db.Translate(err, "could not submit claim")
	}
	if policy == nil || !policy.IsActive {
		return apperr.New(apperr.KindNoActivePolicy, "user does not have an active policy")
	}
	if policy.EndDate != nil && policy.EndDate.Before(civil.DateOf(c.ClaimDate)) {
		return apperr.New(apperr.KindNoActivePolicy, "user's policy has expired")
	}
	c.PolicyID = policy.PolicyID

	active, err := s.repo.HospitalActive(ctx, c.HospitalID)
	if errors.Is(err, ErrHospitalNotFound) || (err == nil && !active) {
		return apperr.Validation("hospital_id", "hospital does not exist or is not active")
	}
	if err != nil {
		return db.Translate(err, "could not submit claim")
	}

	err = s.repo.InsertClaim(ctx, c)
	switch {
	case errors.Is(err, ErrDuplicateClaimNumber):
		return err
	case errors.Is(err, ErrHospitalNotFound):
		return apperr.Validation("hospital_id", "hospital does not exist or is not active")
	case err != nil:
		return db.Translate(err, "could not submit claim")
	}
	return nil
}

// authorizeClaim applies the ownership predicate. Missing claims and claims
// owned by others are reported identically.
func (s *Service) authorizeClaim(ctx context.Context, userID, claimID int64) error {
	owned, err := s.repo.ClaimOwnedBy(ctx, claimID, userID)
	if err != nil {
		return db.Translate(err, "could not load claim")
	}
	if !owned {
		return errClaimNotFound
	}
	return nil
}

// GetClaimDetail returns the caller's claim with joined reference data and
// its documents.
func (s *Service) GetClaimDetail(ctx context.Context, userID, claimID int64) (*ClaimDetail, error) {
	if claimID <= 0 {
		return nil, errClaimNotFound
	}
	detail, err := s.repo.FindClaimForUser(ctx, claimID, userID)
	if errors.Is(err, ErrClaimNotFound) {
		return nil, errClaimNotFound
	}
	if err != nil {
		return nil, db.Translate(err, "could not load claim")
	}

	docs, err := s.repo.ListDocuments(ctx, claimID)
	if err != nil {
		return nil, db.Translate(err, "could not load claim documents")
	}
	if docs == nil {
		docs = []*Document{}
	}
	detail.Documents = docs
	return detail, nil
}

func (s *Service) ListClaims(ctx context.Context, userID int64) ([]*ClaimSummary, error) {
	list, err := s.repo.ListClaimsForUser(ctx, userID)
	if err != nil {
		return nil, db.Translate(err, "could not list claims")
	}
	if list == nil {
		list = []*ClaimSummary{}
	}
	return list, nil
}

// UploadDocument stores the file and records it against the caller's claim.
// The blob is written before the row; if the row cannot be written the blob
// is removed again.
func (s *Service) UploadDocument(ctx context.Context, userID int64, in UploadInput) (*Document, error) {
	rawID := strings.TrimSpace(in.ClaimID)
	if rawID == "" {
		return nil, apperr.Required("claim_id")
	}
	docType := strings.TrimSpace(in.DocumentType)
	if docType == "" {
		return nil, apperr.Required("document_type")
	}
	if len(docType) > maxDocumentTypeLen {
		return nil, apperr.Validation("document_type", "document_type is too long")
	}
	claimID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || claimID <= 0 {
		return nil, apperr.Validation("claim_id", "claim_id must be a positive integer")
	}

	name := blobstore.SanitizeFilename(in.FileName)
	if err := s.uploads.Check(name, int64(len(in.Content))); err != nil {
		return nil, err
	}
	if err := s.authorizeClaim(ctx, userID, claimID); err != nil {
		return nil, err
	}

	path, err := s.blobs.Save(ctx, blobstore.BuildKey(userID, claimID, name), in.Content)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorageUnavailable, "document storage is temporarily unavailable, retry later")
	}

	doc := &Document{
		ClaimID:      claimID,
		DocumentType: docType,
		DocumentName: name,
		FilePath:     path,
		FileSize:     int64(len(in.Content)),
		MimeType:     blobstore.ContentType(name, in.Content),
		UploadedBy:   userID,
	}
	if err := s.repo.InsertDocument(ctx, doc); err != nil {
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), path); derr != nil {
			s.logger.Error().Err(derr).Str("path", path).Msg("remove orphaned document blob")
		}
		return nil, db.Translate(err, "could not record document")
	}

	if s.metrics != nil {
		s.metrics.DocumentsStored.Inc()
		s.metrics.DocumentBytes.Observe(float64(doc.FileSize))
	}
	s.logger.Info().
		Int64("user_id", userID).
		Int64("claim_id", claimID).
		Int64("document_id", doc.DocumentID).
		Int64("size", doc.FileSize).
		Msg("document uploaded")
	return doc, nil
}

// Transition applies a back-office adjudication step under a row lock.
func (s *Service) Transition(ctx context.Context, claimID int64, t Transition) (*Claim, error) {
	var out *Claim
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, coverage, err := s.repo.LockClaim(ctx, claimID)
		if errors.Is(err, ErrClaimNotFound) {
			return errClaimNotFound
		}
		if err != nil {
			return db.Translate(err, "could not load claim")
		}

		from := c.Status
		if err := t.Apply(c, coverage, s.now()); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, c); err != nil {
			return db.Translate(err, "could not update claim")
		}
		s.logger.Info().
			Int64("claim_id", c.ClaimID).
			Str("claim_number", c.ClaimNumber).
			Str("from", string(from)).
			Str("to", string(c.Status)).
			Msg("claim transitioned")
		out = c
		return nil
	})
	if err != nil {
		return nil, db.Translate(err, "could not update claim")
	}
	if s.metrics != nil {
		s.metrics.ClaimTransitions.WithLabelValues(string(out.Status)).Inc()
	}
	return out, nil
}

// VerifyDocument marks a document as verified.
func (s *Service) VerifyDocument(ctx context.Context, documentID int64) (*Document, error) {
	d, err := s.repo.VerifyDocument(ctx, documentID)
	if errors.Is(err, ErrDocumentNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "document not found")
	}
	if err != nil {
		return nil, db.Translate(err, "could not verify document")
	}
	s.logger.Info().Int64("document_id", d.DocumentID).Int64("claim_id", d.ClaimID).Msg("document verified")
	return d, nil
}
