package claim

type CreateClaimRequest struct {
	PolicyID    int64   `json:"policy_id" binding:"required,gt=0"`
	HospitalID  int64   `json:"hospital_id" binding:"required,gt=0"`
	ClaimAmount float64 `json:"claim_amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"max=2000"`
}

type MedicalNotesRequest struct {
	MedicalNotes string `json:"medical_notes" binding:"required,max=5000"`
}

type ReviewRequest struct {
	Decision        string   `json:"decision" binding:"required,oneof=approved rejected"`
	ApprovedAmount  *float64 `json:"approved_amount"`
	RejectionReason string   `json:"rejection_reason" binding:"max=2000"`
}

type ListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=submitted in_review approved rejected paid"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}
