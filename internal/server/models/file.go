package models

import "time"

// File describes an uploaded CSV file. The bytes themselves live in the
// blob store under StorageKey, which is generated by the server and never
// derived from FileName.
type File struct {
	ID         int64
	FileName   string
	StorageKey string
	Size       int64
	UploadedBy int64
	UploadedAt time.Time
}

// Table is the parsed form of a CSV payload: the first record supplies the
// column names and every following record is keyed by them.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// TableView is a parsed file as returned to clients.
type TableView struct {
	FileName  string
	Headers   []string
	Rows      []map[string]string
	TotalRows int
}
