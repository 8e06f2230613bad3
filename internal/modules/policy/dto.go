package policy

type EnrollRequest struct {
	PlanID   int64 `json:"plan_id" binding:"required,gt=0"`
	HolderID int64 `json:"holder_id" binding:"omitempty,gt=0"`
}

type ListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=active expired suspended cancelled"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}
