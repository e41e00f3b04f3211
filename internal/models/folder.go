package models

import "time"

// Folder groups documents for review and production scoping. Folders form a
// parent-pointer tree within a matter.
type Folder struct {
	ID        string    `db:"id" json:"id"`
	MatterID  string    `db:"matter_id" json:"matterId"`
	ParentID  *string   `db:"parent_id" json:"parentId,omitempty"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// DocumentFolder is one membership row; a document may live in many folders.
type DocumentFolder struct {
	DocumentID string    `db:"document_id" json:"documentId"`
	FolderID   string    `db:"folder_id" json:"folderId"`
	AddedAt    time.Time `db:"added_at" json:"addedAt"`
}
