package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DocumentStatus captures the ingestion state machine.
type DocumentStatus string

const (
	DocumentStatusUploaded    DocumentStatus = "uploaded"
	DocumentStatusProcessing  DocumentStatus = "processing"
	DocumentStatusOCRComplete DocumentStatus = "ocr_complete"
	DocumentStatusFailed      DocumentStatus = "failed"
)

// Metadata keys written by the ingestion pipeline. containerExpanded is set
// once after attachment expansion so a re-ingested email never duplicates
// its children.
const (
	MetaContainerExpanded = "containerExpanded"
	MetaParseError        = "parseError"
	MetaExtractionError   = "extractionError"
	MetaOCRError          = "ocrError"
)

// Document represents one ingested file or one exploded attachment.
type Document struct {
	ID               string         `db:"id" json:"id"`
	MatterID         string         `db:"matter_id" json:"matterId"`
	ParentID         *string        `db:"parent_id" json:"parentId,omitempty"`
	FamilyID         string         `db:"family_id" json:"familyId"`
	FamilyIndex      int            `db:"family_index" json:"familyIndex"`
	StoragePath      string         `db:"storage_path" json:"storagePath"`
	HashMD5          string         `db:"hash_md5" json:"hashMd5"`
	HashSHA1         string         `db:"hash_sha1" json:"hashSha1"`
	ContentType      string         `db:"content_type" json:"contentType"`
	OriginalFilename string         `db:"original_filename" json:"originalFilename"`
	Metadata         MetadataMap    `db:"metadata" json:"metadata"`
	TextPath         *string        `db:"text_path" json:"textPath,omitempty"`
	Status           DocumentStatus `db:"status" json:"status"`
	ErrorMessage     *string        `db:"error_message" json:"errorMessage,omitempty"`

	// Coding fields are owned by the review workflow, not by ingestion.
	Relevance *bool          `db:"relevance" json:"relevance,omitempty"`
	Privilege *bool          `db:"privilege" json:"privilege,omitempty"`
	IssueTags pq.StringArray `db:"issue_tags" json:"issueTags,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsFamilyRoot reports whether the document heads its family.
func (d *Document) IsFamilyRoot() bool {
	return d.ParentID == nil
}

// ContainerExpanded reports whether attachment children were already created.
func (d *Document) ContainerExpanded() bool {
	return d.Metadata[MetaContainerExpanded] == "true"
}

// FamilyGroup is the canonical family projection: the root document plus its
// descendants ordered by family index.
type FamilyGroup struct {
	Root     Document   `json:"root"`
	Children []Document `json:"children"`
}

// MetadataMap stores free-form extracted metadata as JSONB.
type MetadataMap map[string]string

// Value marshals the map for persistence.
func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		m = MetadataMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal document metadata: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the map.
func (m *MetadataMap) Scan(value interface{}) error {
	if value == nil {
		*m = MetadataMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for MetadataMap", value)
	}
	if len(data) == 0 {
		*m = MetadataMap{}
		return nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal document metadata: %w", err)
	}
	return nil
}

// Merge returns a copy of the map with entries from other applied on top,
// new keys winning.
func (m MetadataMap) Merge(other map[string]string) MetadataMap {
	merged := MetadataMap{}
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
