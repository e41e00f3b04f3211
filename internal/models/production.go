package models

import "time"

// ProductionStatus captures the production job state machine. Status only
// advances pending → processing → {complete, failed}; a production is never
// restarted once it has left pending.
type ProductionStatus string

const (
	ProductionStatusPending    ProductionStatus = "pending"
	ProductionStatusProcessing ProductionStatus = "processing"
	ProductionStatusComplete   ProductionStatus = "complete"
	ProductionStatusFailed     ProductionStatus = "failed"
)

// Production is one Bates-stamping job definition and its outcome.
type Production struct {
	ID                string           `db:"id" json:"id"`
	MatterID          string           `db:"matter_id" json:"matterId"`
	Name              string           `db:"name" json:"name"`
	BatesPrefix       string           `db:"bates_prefix" json:"batesPrefix"`
	BatesStart        int              `db:"bates_start" json:"batesStart"`
	FolderID          *string          `db:"folder_id" json:"folderId,omitempty"`
	IncludeSubfolders bool             `db:"include_subfolders" json:"includeSubfolders"`
	Status            ProductionStatus `db:"status" json:"status"`
	OutputPath        *string          `db:"output_path" json:"outputPath,omitempty"`
	ErrorMessage      *string          `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
	StartedAt         *time.Time       `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt       *time.Time       `db:"completed_at" json:"completedAt,omitempty"`
}

// ProductionDocument is the per-document ledger row.
type ProductionDocument struct {
	ID             string    `db:"id" json:"id"`
	ProductionID   string    `db:"production_id" json:"productionId"`
	DocumentID     string    `db:"document_id" json:"documentId"`
	BatesBegin     string    `db:"bates_begin" json:"batesBegin"`
	BatesEnd       string    `db:"bates_end" json:"batesEnd"`
	PageCount      int       `db:"page_count" json:"pageCount"`
	IsPlaceholder  bool      `db:"is_placeholder" json:"isPlaceholder"`
	NativeFilename string    `db:"native_filename" json:"nativeFilename"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// ProductionPage is the per-page ledger row.
type ProductionPage struct {
	ID           string    `db:"id" json:"id"`
	ProductionID string    `db:"production_id" json:"productionId"`
	DocumentID   string    `db:"document_id" json:"documentId"`
	PageNumber   int       `db:"page_number" json:"pageNumber"`
	BatesNumber  string    `db:"bates_number" json:"batesNumber"`
	ImagePath    string    `db:"image_path" json:"imagePath"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// LoadFileRecord is the in-memory projection serialized into DAT/OPT load
// files: one row per produced document, never persisted.
type LoadFileRecord struct {
	BegBates   string
	EndBates   string
	ImagePath  string
	NativePath string
	PageCount  int
}
