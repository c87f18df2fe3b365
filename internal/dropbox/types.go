package dropbox

import (
	"path"
	"strings"
	"time"
)

const (
	TagFile    = "file"
	TagFolder  = "folder"
	TagDeleted = "deleted"
)

// Entry is a file, folder or deleted metadata record from list_folder.
type Entry struct {
	Tag            string    `json:".tag"`
	ID             string    `json:"id,omitempty"`
	Name           string    `json:"name"`
	PathLower      string    `json:"path_lower,omitempty"`
	PathDisplay    string    `json:"path_display,omitempty"`
	ClientModified time.Time `json:"client_modified"`
	ServerModified time.Time `json:"server_modified"`
	Rev            string    `json:"rev,omitempty"`
	Size           uint64    `json:"size,omitempty"`
	ContentHash    string    `json:"content_hash,omitempty"`
}

func (e *Entry) IsFile() bool { return e.Tag == TagFile }

// Ext returns the display extension, dot included.
func (e *Entry) Ext() string {
	return path.Ext(e.PathDisplay)
}

// BaseName returns the display name without its extension.
func (e *Entry) BaseName() string {
	base := path.Base(e.PathDisplay)
	return strings.TrimSuffix(base, path.Ext(base))
}

type ListFolderArg struct {
	Path           string `json:"path"`
	Recursive      bool   `json:"recursive"`
	Limit          int    `json:"limit,omitempty"`
	IncludeDeleted bool   `json:"include_deleted"`
}

type ListFolderContinueArg struct {
	Cursor string `json:"cursor"`
}

type ListFolderResult struct {
	Entries []*Entry `json:"entries"`
	Cursor  string   `json:"cursor"`
	HasMore bool     `json:"has_more"`
}

type downloadArg struct {
	Path string `json:"path"`
}

// ToDropboxPath converts a bucket style path into the form the API expects.
// The root folder is the empty string.
func ToDropboxPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
