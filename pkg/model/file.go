package model

//go:generate go run github.com/dmarkham/enumer -type FileStatus -trimprefix FileStatus -transform snake-upper -output file_status.gen.go

import "github.com/google/uuid"

// FileStatus is the lifecycle state of an uploaded object.
type FileStatus int

const (
	FileStatusUploading FileStatus = iota
	FileStatusUploaded
	FileStatusProcessing
	FileStatusReady
	FileStatusFailed
	FileStatusDeleted
)

// FileSource records which surface uploaded a file.
type FileSource int

const (
	FileSourceAdmin FileSource = iota
	FileSourceApp
)

// File is the metadata of an object stored in S3.
type File struct {
	Base
	OriginalName    string     `gorm:"column:original_name;not null" json:"original_name"`
	Key             string     `gorm:"column:key;not null" json:"key"`
	Storage         string     `gorm:"column:storage;not null" json:"storage"`
	Bucket          string     `gorm:"column:bucket;not null" json:"bucket"`
	Region          *string    `gorm:"column:region" json:"region,omitempty"`
	ContentType     *string    `gorm:"column:content_type" json:"content_type,omitempty"`
	Extension       *string    `gorm:"column:extension" json:"extension,omitempty"`
	SizeBytes       int64      `gorm:"column:size_bytes;not null" json:"size_bytes"`
	ChecksumMD5     *string    `gorm:"column:checksum_md5" json:"checksum_md5,omitempty"`
	ChecksumSHA256  *string    `gorm:"column:checksum_sha256" json:"checksum_sha256,omitempty"`
	Width           *int       `gorm:"column:width" json:"width,omitempty"`
	Height          *int       `gorm:"column:height" json:"height,omitempty"`
	DurationSeconds *float64   `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	Status          FileStatus `gorm:"column:status;not null" json:"status"`
	Version         int        `gorm:"column:version;not null" json:"version"`
	IsPublic        bool       `gorm:"column:is_public;not null" json:"is_public"`
	Source          FileSource `gorm:"column:source;not null" json:"source"`
}

func (File) TableName() string {
	return "portal_file"
}

// FileAssociation attaches a file to a record of another table.
type FileAssociation struct {
	Base
	Sortable
	FileID       uuid.UUID `gorm:"column:file_id;type:uuid;not null" json:"file_id"`
	ResourceID   uuid.UUID `gorm:"column:resource_id;type:uuid;not null" json:"resource_id"`
	ResourceName string    `gorm:"column:resource_name;not null" json:"resource_name"`
}

func (FileAssociation) TableName() string {
	return "portal_file_association"
}
