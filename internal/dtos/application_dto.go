package dtos

type ApplicationStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type ResumeCreationRequest struct {
	Name      string `json:"name" binding:"required"`
	FilePath  string `json:"file_path" binding:"required"`
	FileType  string `json:"file_type" binding:"required,oneof=pdf docx txt"`
	IsDefault bool   `json:"is_default"`
}
