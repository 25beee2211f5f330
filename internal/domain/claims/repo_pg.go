package claims

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/claimease/claimease/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository { return &repoPG{q: q} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.q)
}

// ownedClaim is the single row-level authorization predicate: $1 is the
// claim id and $2 the requesting user.
const ownedClaim = `c.claim_id = $1 AND c.user_id = $2`

const claimCols = `c.claim_id, c.claim_number, c.user_id, c.hospital_id, c.policy_id,
	c.claim_type, c.treatment_type, c.admission_date, c.discharge_date, c.claim_date,
	c.claim_status, c.claim_amount, c.approved_amount, c.rejected_reason, c.settlement_date,
	c.diagnosis, c.treatment_details, c.doctor_name, c.room_type, c.is_emergency, c.updated_at`

func claimDest(c *Claim) []interface{} {
	return []interface{}{&c.ClaimID, &c.ClaimNumber, &c.UserID, &c.HospitalID, &c.PolicyID,
		&c.ClaimType, &c.TreatmentType, &c.AdmissionDate, &c.DischargeDate, &c.ClaimDate,
		&c.Status, &c.ClaimAmount, &c.ApprovedAmount, &c.RejectedReason, &c.SettlementDate,
		&c.Diagnosis, &c.TreatmentDetails, &c.DoctorName, &c.RoomType, &c.IsEmergency, &c.UpdatedAt}
}

const documentCols = `document_id, claim_id, document_type, document_name, file_path,
	file_size, mime_type, uploaded_by, upload_date, is_verified`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.DocumentID, &d.ClaimID, &d.DocumentType, &d.DocumentName, &d.FilePath,
		&d.FileSize, &d.MimeType, &d.UploadedBy, &d.UploadDate, &d.IsVerified)
	return &d, err
}

func (r *repoPG) UserPolicy(ctx context.Context, userID int64) (*PolicySnapshot, error) {
	var policyID *int64
	var active *bool
	var snap PolicySnapshot
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT u.policy_id, p.is_active, u.policy_end_date
		FROM users u
		LEFT JOIN policies p ON u.policy_id = p.policy_id
		WHERE u.user_id = $1`, userID).Scan(&policyID, &active, &snap.EndDate)
	if db.IsNoRows(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if policyID == nil {
		return nil, nil
	}
	snap.PolicyID = *policyID
	snap.IsActive = active != nil && *active
	return &snap, nil
}

func (r *repoPG) HospitalActive(ctx context.Context, hospitalID int64) (bool, error) {
	var active bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT is_active FROM hospitals WHERE hospital_id = $1`, hospitalID).Scan(&active)
	if db.IsNoRows(err) {
		return false, ErrHospitalNotFound
	}
	return active, err
}

func (r *repoPG) LatestClaimNumber(ctx context.Context) (string, error) {
	var number *string
	if err := r.conn(ctx).QueryRow(ctx, `SELECT MAX(claim_number) FROM claims`).Scan(&number); err != nil {
		return "", err
	}
	if number == nil {
		return "", nil
	}
	return *number, nil
}

func (r *repoPG) InsertClaim(ctx context.Context, c *Claim) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO claims (claim_number, user_id, hospital_id, policy_id, claim_type,
			treatment_type, admission_date, discharge_date, claim_date, claim_status,
			claim_amount, diagnosis, treatment_details, doctor_name, room_type, is_emergency)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING claim_id, updated_at`,
		c.ClaimNumber, c.UserID, c.HospitalID, c.PolicyID, c.ClaimType,
		c.TreatmentType, c.AdmissionDate, c.DischargeDate, c.ClaimDate, c.Status,
		c.ClaimAmount, c.Diagnosis, c.TreatmentDetails, c.DoctorName, c.RoomType, c.IsEmergency,
	).Scan(&c.ClaimID, &c.UpdatedAt)
	if db.IsUniqueViolation(err, "claims_claim_number_key") {
		return ErrDuplicateClaimNumber
	}
	if db.IsForeignKeyViolation(err, "claims_hospital_id_fkey") {
		return ErrHospitalNotFound
	}
	return err
}

func (r *repoPG) ClaimOwnedBy(ctx context.Context, claimID, userID int64) (bool, error) {
	var owned bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM claims c WHERE `+ownedClaim+`)`, claimID, userID).Scan(&owned)
	return owned, err
}

func (r *repoPG) FindClaimForUser(ctx context.Context, claimID, userID int64) (*ClaimDetail, error) {
	var d ClaimDetail
	dest := append(claimDest(&d.Claim), &d.HospitalName, &d.HospitalPhone,
		&d.PolicyName, &d.CoverageAmount, &d.CompanyName, &d.Helpline)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+claimCols+`, h.hospital_name, h.contact_number,
			p.policy_name, p.coverage_amount, ic.company_name, ic.helpline
		FROM claims c
		JOIN hospitals h ON c.hospital_id = h.hospital_id
		JOIN policies p ON c.policy_id = p.policy_id
		JOIN insurance_companies ic ON p.company_id = ic.company_id
		WHERE `+ownedClaim, claimID, userID).Scan(dest...)
	if db.IsNoRows(err) {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) ListClaimsForUser(ctx context.Context, userID int64) ([]*ClaimSummary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+claimCols+`, h.hospital_name, p.policy_name, ic.company_name
		FROM claims c
		JOIN hospitals h ON c.hospital_id = h.hospital_id
		JOIN policies p ON c.policy_id = p.policy_id
		JOIN insurance_companies ic ON p.company_id = ic.company_id
		WHERE c.user_id = $1
		ORDER BY c.claim_date DESC, c.claim_id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ClaimSummary
	for rows.Next() {
		var s ClaimSummary
		dest := append(claimDest(&s.Claim), &s.HospitalName, &s.PolicyName, &s.CompanyName)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) InsertDocument(ctx context.Context, d *Document) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO claim_documents (claim_id, document_type, document_name, file_path,
			file_size, mime_type, uploaded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING document_id, upload_date, is_verified`,
		d.ClaimID, d.DocumentType, d.DocumentName, d.FilePath, d.FileSize, d.MimeType, d.UploadedBy,
	).Scan(&d.DocumentID, &d.UploadDate, &d.IsVerified)
}

func (r *repoPG) ListDocuments(ctx context.Context, claimID int64) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+documentCols+` FROM claim_documents
		WHERE claim_id = $1 ORDER BY upload_date ASC, document_id ASC`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) VerifyDocument(ctx context.Context, documentID int64) (*Document, error) {
	d, err := scanDocument(r.conn(ctx).QueryRow(ctx, `
		UPDATE claim_documents SET is_verified = TRUE
		WHERE document_id = $1
		RETURNING `+documentCols, documentID))
	if db.IsNoRows(err) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repoPG) LockClaim(ctx context.Context, claimID int64) (*Claim, float64, error) {
	var c Claim
	var coverage float64
	dest := append(claimDest(&c), &coverage)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+claimCols+`, p.coverage_amount
		FROM claims c
		JOIN policies p ON c.policy_id = p.policy_id
		WHERE c.claim_id = $1
		FOR UPDATE OF c`, claimID).Scan(dest...)
	if db.IsNoRows(err) {
		return nil, 0, ErrClaimNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return &c, coverage, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, c *Claim) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE claims SET claim_status = $2, approved_amount = $3, rejected_reason = $4,
			settlement_date = $5, updated_at = $6
		WHERE claim_id = $1`,
		c.ClaimID, c.Status, c.ApprovedAmount, c.RejectedReason, c.SettlementDate, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClaimNotFound
	}
	return nil
}
